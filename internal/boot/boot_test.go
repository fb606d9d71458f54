package boot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/platform/sandbox"
)

type staticManifest struct {
	manifest *Manifest
	err      error
}

func (f staticManifest) FetchManifest(context.Context) (*Manifest, error) {
	return f.manifest, f.err
}

// resourceFetcher serves head resources, optionally holding one until released
type resourceFetcher struct {
	bodies  map[string]string
	hold    string
	release chan struct{}
}

func (f *resourceFetcher) Fetch(ctx context.Context, ref string) (*httpclient.Resource, error) {
	if ref == f.hold {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	body, ok := f.bodies[ref]
	if !ok {
		return nil, &httpclient.StatusError{URL: ref, Status: 404}
	}
	return &httpclient.Resource{URL: ref, Status: 200, Body: []byte(body)}, nil
}

type fakePlatform struct {
	mu           sync.Mutex
	startURLs    []string
	startErr     error
	reportLoaded bool
	entryCalls   []string
	entryErr     error
	onEntry      func()
}

func (p *fakePlatform) Start(_ context.Context, urls []string, onLoaded func(string)) error {
	p.mu.Lock()
	p.startURLs = append([]string{}, urls...)
	p.mu.Unlock()
	if p.startErr != nil {
		return p.startErr
	}
	if p.reportLoaded {
		for _, url := range urls {
			onLoaded(url)
		}
	}
	return nil
}

func (p *fakePlatform) CallEntryPoint(assemblyName, entryPoint string, _ []any) error {
	if p.onEntry != nil {
		p.onEntry()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entryCalls = append(p.entryCalls, assemblyName+"."+entryPoint)
	return p.entryErr
}

func (p *fakePlatform) entries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.entryCalls...)
}

type recorder struct {
	mu        sync.Mutex
	progress  [][2]int
	completes int
	failures  []error
}

func (r *recorder) OnProgress(c, t int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{c, t})
}

func (r *recorder) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func (r *recorder) OnFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func exampleManifest() *Manifest {
	return &Manifest{
		Main:          "App.dll",
		EntryPoint:    "Main",
		CSSReferences: []string{"a.css"},
		JSReferences:  []string{"b.js"},
	}
}

func newDocument(t *testing.T, fetcher sandbox.Fetcher) *sandbox.Document {
	t.Helper()
	rt, err := sandbox.New(sandbox.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return sandbox.NewDocument(rt, fetcher, nil)
}

func exampleFetcher() *resourceFetcher {
	return &resourceFetcher{bodies: map[string]string{
		"a.css": "body { margin: 0; }",
		"b.js":  "globalThis.b = true;",
	}}
}

func TestBootExampleManifest(t *testing.T) {
	platform := &fakePlatform{reportLoaded: true}
	rec := &recorder{}
	seq := NewSequencer(staticManifest{manifest: exampleManifest()}, platform, newDocument(t, exampleFetcher()),
		WithObserver(rec),
	)

	platform.onEntry = func() {
		snap := seq.Progress().Snapshot()
		assert.Equal(t, 2, snap.Completed, "entry point before resources and platform finished")
	}

	require.NoError(t, seq.Boot(context.Background()))
	assert.Equal(t, StateRunning, seq.State())
	assert.Equal(t, []string{"App.Main"}, platform.entries())
	assert.Equal(t, []string{"_framework/_bin/App.dll"}, platform.startURLs)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.progress)
	assert.Equal(t, [2]int{0, 3}, rec.progress[0])
	assert.Equal(t, [2]int{3, 3}, rec.progress[len(rec.progress)-1])
	for i := 1; i < len(rec.progress); i++ {
		assert.GreaterOrEqual(t, rec.progress[i][0], rec.progress[i-1][0])
		assert.Equal(t, 3, rec.progress[i][1])
	}
	assert.Equal(t, 1, rec.completes)
	assert.Empty(t, rec.failures)
	assert.Equal(t, "3 / 3", seq.Progress().String())
}

func TestBootWaitsForResources(t *testing.T) {
	fetcher := exampleFetcher()
	fetcher.hold = "b.js"
	fetcher.release = make(chan struct{})

	platform := &fakePlatform{}
	seq := NewSequencer(staticManifest{manifest: exampleManifest()}, platform, newDocument(t, fetcher))

	done := make(chan error, 1)
	go func() { done <- seq.Boot(context.Background()) }()

	// Platform start has returned; the join still blocks on b.js
	require.Eventually(t, func() bool {
		platform.mu.Lock()
		defer platform.mu.Unlock()
		return platform.startURLs != nil
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, platform.entries())
	assert.Equal(t, StateRuntimeLoading, seq.State())

	close(fetcher.release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"App.Main"}, platform.entries())
	assert.Equal(t, Snapshot{Completed: 3, Total: 3, Done: true}, seq.Progress().Snapshot())
}

func TestBootResourceFailure(t *testing.T) {
	fetcher := exampleFetcher()
	delete(fetcher.bodies, "a.css")

	platform := &fakePlatform{reportLoaded: true}
	rec := &recorder{}
	seq := NewSequencer(staticManifest{manifest: exampleManifest()}, platform, newDocument(t, fetcher),
		WithObserver(rec),
	)

	err := seq.Boot(context.Background())
	var loadErr *ResourceLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "a.css", loadErr.URL)
	assert.Equal(t, StateFailed, seq.State())
	assert.Empty(t, platform.entries(), "entry point must not run after a resource failure")

	rec.mu.Lock()
	assert.Equal(t, 0, rec.completes)
	assert.Len(t, rec.failures, 1)
	rec.mu.Unlock()

	assert.ErrorIs(t, seq.Boot(context.Background()), ErrAlreadyStarted)
	rec.mu.Lock()
	assert.Len(t, rec.failures, 1, "second boot must not notify")
	rec.mu.Unlock()
}

func TestBootStartErrors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		fetcher  ManifestFetcher
		platform *fakePlatform
		reason   string
	}{
		{
			name:     "manifest fetch",
			fetcher:  staticManifest{err: cause},
			platform: &fakePlatform{},
			reason:   "failed to fetch boot manifest",
		},
		{
			name:     "platform start",
			fetcher:  staticManifest{manifest: exampleManifest()},
			platform: &fakePlatform{startErr: cause},
			reason:   "failed to start platform",
		},
		{
			name:     "entry point",
			fetcher:  staticManifest{manifest: exampleManifest()},
			platform: &fakePlatform{entryErr: cause},
			reason:   "failed to call entry point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			seq := NewSequencer(tt.fetcher, tt.platform, newDocument(t, exampleFetcher()), WithObserver(rec))

			err := seq.Boot(context.Background())
			var startErr *StartError
			require.True(t, errors.As(err, &startErr))
			assert.Equal(t, tt.reason, startErr.Reason)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, StateFailed, seq.State())

			rec.mu.Lock()
			defer rec.mu.Unlock()
			assert.Len(t, rec.failures, 1)
			assert.Equal(t, 0, rec.completes)
		})
	}
}

func TestBootCountsUnreportedAssemblies(t *testing.T) {
	manifest := exampleManifest()
	manifest.AssemblyReferences = []string{"Lib.dll", "Util.dll"}

	platform := &fakePlatform{}
	seq := NewSequencer(staticManifest{manifest: manifest}, platform, newDocument(t, exampleFetcher()))

	require.NoError(t, seq.Boot(context.Background()))
	assert.Equal(t, Snapshot{Completed: 5, Total: 5, Done: true}, seq.Progress().Snapshot())
	assert.Equal(t, []string{
		"_framework/_bin/App.dll",
		"_framework/_bin/Lib.dll",
		"_framework/_bin/Util.dll",
	}, platform.startURLs)
}

func TestBootCountsDuplicateAssemblyReferences(t *testing.T) {
	tests := []struct {
		name         string
		reportLoaded bool
	}{
		{name: "reported", reportLoaded: true},
		{name: "unreported", reportLoaded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := exampleManifest()
			manifest.AssemblyReferences = []string{"Lib.dll", "Lib.dll"}

			rec := &recorder{}
			seq := NewSequencer(staticManifest{manifest: manifest}, &fakePlatform{reportLoaded: tt.reportLoaded},
				newDocument(t, exampleFetcher()), WithObserver(rec))

			require.NoError(t, seq.Boot(context.Background()))
			assert.Equal(t, Snapshot{Completed: 5, Total: 5, Done: true}, seq.Progress().Snapshot())

			rec.mu.Lock()
			defer rec.mu.Unlock()
			require.NotEmpty(t, rec.progress)
			assert.Equal(t, [2]int{0, 5}, rec.progress[0])
			assert.Equal(t, [2]int{5, 5}, rec.progress[len(rec.progress)-1])
			assert.Equal(t, 1, rec.completes)
		})
	}
}

func TestBootRecordsMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	seq := NewSequencer(staticManifest{manifest: exampleManifest()}, &fakePlatform{}, newDocument(t, exampleFetcher()),
		WithMetrics(metrics),
	)

	require.NoError(t, seq.Boot(context.Background()))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.BootCompleted))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.BootTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BootOutcomes.WithLabelValues("running")))
}

func TestShouldAutoStart(t *testing.T) {
	tests := []struct {
		name string
		page string
		want bool
	}{
		{
			name: "default autostart",
			page: `<html><body><script src="_framework/blazor.webassembly.js"></script></body></html>`,
			want: true,
		},
		{
			name: "opted out",
			page: `<html><body><script src="_framework/blazor.webassembly.js" autostart="false"></script></body></html>`,
			want: false,
		},
		{
			name: "query string on src",
			page: `<html><body><script src="_framework/blazor.webassembly.js?v=2" autostart="true"></script></body></html>`,
			want: true,
		},
		{
			name: "no boot script",
			page: `<html><body><script src="app.js"></script></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShouldAutoStart(strings.NewReader(tt.page), DefaultBootScript)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasProgressElement(t *testing.T) {
	ok, err := HasProgressElement(strings.NewReader(`<div id="blazorBootPercentage"></div>`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasProgressElement(strings.NewReader(`<div id="app"></div>`))
	require.NoError(t, err)
	assert.False(t, ok)
}
