// Package routing resolves browser locations into component handlers.
//
// A location reported by the browser is first made relative to the
// application base URI (Normalize), then matched against an ordered route
// table (Table). The Coordinator ties both together and arms navigation
// interception exactly once when it is initialized.
//
// Normalization rules:
//   - "{base}rest" resolves to "rest"
//   - the base URI without its trailing slash resolves to ""
//   - anything else fails with *URINotContainedError
//   - query and fragment are dropped ("page?x=1#y" -> "page")
//
// Matching is first-registered-wins. Pattern syntax is pluggable; the
// default is doublestar glob matching on slash-trimmed paths.
//
// Example Usage:
//
//	table, _ := routing.NewTable([]routing.Route{
//		{Pattern: "/", Handler: "Index"},
//		{Pattern: "/counter", Handler: "Counter"},
//	})
//	coord := routing.NewCoordinator(interceptor, routing.WithLogger(logger))
//	if err := coord.Initialize(table, "/app/"); err != nil {
//		return err
//	}
//	handler, err := coord.Route("/app/counter?start=3")
package routing
