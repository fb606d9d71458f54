/*
Package sandbox is the local platform: a goja JavaScript runtime that hosts
application assemblies, plus a minimal document whose head accepts
stylesheet and script elements.

# Assemblies

Start fetches all assembly URLs concurrently and evaluates them in order.
Each source runs as a module body with an exports object in scope:

	exports.Main = function(args) { navigation.navigateTo("/home"); };

The exports are registered under AssemblyName(url), so "_framework/_bin/App.js"
becomes "App", and CallEntryPoint("App", "Main", nil) runs the function above.

# Interop

The global navigation object is the browser side of link interception:

  - navigation.enableInterception(assembly, method) arms interception
  - navigation.navigateTo(uri) reports a navigation; when armed, the
    callback assembly's method is called with (uri, true)

Go code observes navigations through OnLocationChanged. Listeners run after
the VM lock is released, so they may call back into the runtime.

# Document

AppendToHead on a <link rel="stylesheet" href> or <script src> fetches the
resource in the background. HTML responses are refused (strict MIME
checking via mimetype), scripts are evaluated in the runtime, and the
element fires exactly one of its load or error handlers.

# Limits

Every evaluation is bounded by Config.Timeout and the caller's context;
both interrupt the VM. require, process and module are removed from the
global scope.
*/
package sandbox
