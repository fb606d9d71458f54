package boot

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/platform/sandbox"
)

const (
	// ManifestPath is fetched relative to the host base URL
	ManifestPath = "_framework/blazor.boot.json"
	// AssemblyDir prefixes every assembly URL
	AssemblyDir = "_framework/_bin/"
)

// Manifest describes what an application needs to boot
type Manifest struct {
	Main               string   `json:"main"`
	EntryPoint         string   `json:"entryPoint"`
	AssemblyReferences []string `json:"assemblyReferences"`
	CSSReferences      []string `json:"cssReferences"`
	JSReferences       []string `json:"jsReferences"`
	LinkerEnabled      bool     `json:"linkerEnabled"`
}

// ParseManifest decodes and validates a manifest document
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Main == "" {
		return nil, fmt.Errorf("%w: main assembly is required", ErrInvalidManifest)
	}
	if m.EntryPoint == "" {
		return nil, fmt.Errorf("%w: entry point is required", ErrInvalidManifest)
	}
	return &m, nil
}

// TotalResources counts every progress step: assemblies, stylesheets,
// scripts, and the entry point call.
func (m *Manifest) TotalResources() int {
	return len(m.AssemblyReferences) + len(m.CSSReferences) + len(m.JSReferences) + 1
}

// AssemblyURLs lists the main assembly first, then its references
func (m *Manifest) AssemblyURLs() []string {
	urls := make([]string, 0, len(m.AssemblyReferences)+1)
	urls = append(urls, AssemblyDir+m.Main)
	for _, ref := range m.AssemblyReferences {
		urls = append(urls, AssemblyDir+ref)
	}
	return urls
}

// MainAssemblyName is the name the entry point is resolved against
func (m *Manifest) MainAssemblyName() string {
	return sandbox.AssemblyName(m.Main)
}

// Resources lists stylesheets then scripts
func (m *Manifest) Resources() []ResourceRef {
	refs := make([]ResourceRef, 0, len(m.CSSReferences)+len(m.JSReferences))
	for _, url := range m.CSSReferences {
		refs = append(refs, ResourceRef{Kind: Stylesheet, URL: url})
	}
	for _, url := range m.JSReferences {
		refs = append(refs, ResourceRef{Kind: Script, URL: url})
	}
	return refs
}

// ManifestFetcher retrieves the boot manifest
type ManifestFetcher interface {
	FetchManifest(ctx context.Context) (*Manifest, error)
}

// HTTPManifestFetcher fetches the manifest with the host's cookies
type HTTPManifestFetcher struct {
	Client *httpclient.Client
}

// FetchManifest implements ManifestFetcher
func (f *HTTPManifestFetcher) FetchManifest(ctx context.Context) (*Manifest, error) {
	res, err := f.Client.Fetch(ctx, ManifestPath)
	if err != nil {
		return nil, err
	}
	return ParseManifest(res.Body)
}
