package boot

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/platform/sandbox"
)

// ResourceKind selects the element a resource is loaded through
type ResourceKind int

const (
	Stylesheet ResourceKind = iota
	Script
)

func (k ResourceKind) String() string {
	switch k {
	case Stylesheet:
		return "stylesheet"
	case Script:
		return "script"
	default:
		return "unknown"
	}
}

// ResourceRef is one embedded resource from the manifest
type ResourceRef struct {
	Kind ResourceKind
	URL  string
}

// Document accepts head elements; appending starts the load
type Document interface {
	CreateElement(tag string) *sandbox.Element
	AppendToHead(ctx context.Context, el *sandbox.Element)
}

// ResourceLoader attaches embedded resources to the document head
type ResourceLoader struct {
	document Document
	progress *Progress
	logger   *zap.Logger
}

// NewResourceLoader creates a loader that reports each success to progress
func NewResourceLoader(document Document, progress *Progress, logger *zap.Logger) *ResourceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceLoader{
		document: document,
		progress: progress,
		logger:   logger,
	}
}

// LoadAll loads every ref concurrently and waits for all of them to settle.
// Siblings are not cancelled when one fails; the first failure is returned
// as a *ResourceLoadError.
func (l *ResourceLoader) LoadAll(ctx context.Context, refs []ResourceRef) error {
	var g errgroup.Group
	for _, ref := range refs {
		g.Go(func() error {
			if err := l.load(ctx, ref); err != nil {
				l.logger.Warn("Resource failed to load",
					zap.String("kind", ref.Kind.String()),
					zap.String("url", ref.URL),
					zap.Error(err),
				)
				return &ResourceLoadError{URL: ref.URL, Err: err}
			}
			l.progress.Increment()
			return nil
		})
	}
	return g.Wait()
}

func (l *ResourceLoader) load(ctx context.Context, ref ResourceRef) error {
	if ref.URL == "" {
		return sandbox.ErrNoResourceAddress
	}

	var el *sandbox.Element
	switch ref.Kind {
	case Stylesheet:
		el = l.document.CreateElement("link")
		el.SetAttribute("rel", "stylesheet")
		el.SetAttribute("href", ref.URL)
	default:
		el = l.document.CreateElement("script")
		el.SetAttribute("src", ref.URL)
	}

	settled := make(chan error, 1)
	el.OnLoad(func() { settled <- nil })
	el.OnError(func(err error) { settled <- err })
	l.document.AppendToHead(ctx, el)

	return <-settled
}
