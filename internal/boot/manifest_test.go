package boot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/httpclient"
)

const manifestJSON = `{
	"main": "App.dll",
	"entryPoint": "App.Program:Main",
	"assemblyReferences": ["Lib.dll"],
	"cssReferences": ["css/site.css"],
	"jsReferences": ["js/interop.js", "js/extra.js"],
	"linkerEnabled": true
}`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(manifestJSON))
	require.NoError(t, err)

	assert.Equal(t, "App.dll", m.Main)
	assert.Equal(t, "App.Program:Main", m.EntryPoint)
	assert.True(t, m.LinkerEnabled)
	assert.Equal(t, 5, m.TotalResources())
	assert.Equal(t, "App", m.MainAssemblyName())
	assert.Equal(t, []string{"_framework/_bin/App.dll", "_framework/_bin/Lib.dll"}, m.AssemblyURLs())
	assert.Equal(t, []ResourceRef{
		{Kind: Stylesheet, URL: "css/site.css"},
		{Kind: Script, URL: "js/interop.js"},
		{Kind: Script, URL: "js/extra.js"},
	}, m.Resources())
}

func TestParseManifestInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "<html>"},
		{name: "missing main", data: `{"entryPoint": "Main"}`},
		{name: "missing entry point", data: `{"main": "App.dll"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestHTTPManifestFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/app/_framework/blazor.boot.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(manifestJSON))
	}))
	defer server.Close()

	client, err := httpclient.New(httpclient.Config{BaseURL: server.URL + "/app/"}, nil)
	require.NoError(t, err)

	m, err := (&HTTPManifestFetcher{Client: client}).FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "App.dll", m.Main)
}
