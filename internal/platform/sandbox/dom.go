package sandbox

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Document is the host page model resources are attached to. Appending a
// stylesheet link or script element to the head starts its load.
type Document struct {
	runtime *Runtime
	fetcher Fetcher
	logger  *zap.Logger

	head []*Element
	mu   sync.RWMutex
}

// Element is a head node. Load and error events fire at most once, from
// the goroutine that loaded the resource.
type Element struct {
	TagName    string
	Attributes map[string]string

	mu      sync.Mutex
	content []byte
	onLoad  func()
	onError func(error)
	once    sync.Once
}

// NewDocument creates an empty document whose scripts evaluate in runtime
func NewDocument(runtime *Runtime, fetcher Fetcher, logger *zap.Logger) *Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Document{
		runtime: runtime,
		fetcher: fetcher,
		logger:  logger,
	}
}

// CreateElement creates a detached element
func (d *Document) CreateElement(tag string) *Element {
	return &Element{
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string),
	}
}

// AppendToHead attaches el and, for <link rel=stylesheet href> and
// <script src>, fetches the resource asynchronously.
func (d *Document) AppendToHead(ctx context.Context, el *Element) {
	d.mu.Lock()
	d.head = append(d.head, el)
	d.mu.Unlock()

	ref, ok := el.resourceRef()
	if !ok {
		return
	}
	go d.load(ctx, el, ref)
}

// Head returns the attached head elements in order
func (d *Document) Head() []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Element{}, d.head...)
}

func (d *Document) load(ctx context.Context, el *Element, ref string) {
	if d.fetcher == nil {
		el.fail(fmt.Errorf("no fetcher for %s", ref))
		return
	}

	res, err := d.fetcher.Fetch(ctx, ref)
	if err != nil {
		el.fail(err)
		return
	}
	if err := checkMIME(res.ContentType, res.Body); err != nil {
		el.fail(fmt.Errorf("%s: %w", ref, err))
		return
	}

	if el.TagName == "script" {
		if d.runtime == nil {
			el.fail(fmt.Errorf("no runtime to evaluate %s", ref))
			return
		}
		if _, err := d.runtime.EvaluateScript(ctx, ref, string(res.Body)); err != nil {
			el.fail(err)
			return
		}
	}

	el.mu.Lock()
	el.content = res.Body
	el.mu.Unlock()

	d.logger.Debug("Head resource loaded",
		zap.String("tag", el.TagName),
		zap.String("url", ref),
		zap.String("mime", mimetype.Detect(res.Body).String()),
	)
	el.succeed()
}

// checkMIME refuses HTML responses, which is what a host fallback route
// returns for a missing static file.
func checkMIME(contentType string, body []byte) error {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
			return fmt.Errorf("%w: %s", ErrMIMETypeRefused, mediaType)
		}
	}
	if detected := mimetype.Detect(body); detected.Is("text/html") {
		return fmt.Errorf("%w: %s", ErrMIMETypeRefused, detected.String())
	}
	return nil
}

// SetAttribute sets an attribute value
func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Attributes[strings.ToLower(name)] = value
}

// GetAttribute retrieves an attribute value
func (e *Element) GetAttribute(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Attributes[strings.ToLower(name)]
}

// OnLoad sets the load handler. Must be set before the element is appended.
func (e *Element) OnLoad(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onLoad = fn
}

// OnError sets the error handler. Must be set before the element is appended.
func (e *Element) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// Content returns the loaded resource body
func (e *Element) Content() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

func (e *Element) resourceRef() (string, bool) {
	switch e.TagName {
	case "link":
		if strings.EqualFold(e.GetAttribute("rel"), "stylesheet") {
			href := e.GetAttribute("href")
			return href, href != ""
		}
	case "script":
		src := e.GetAttribute("src")
		return src, src != ""
	}
	return "", false
}

func (e *Element) succeed() {
	e.once.Do(func() {
		e.mu.Lock()
		fn := e.onLoad
		e.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (e *Element) fail(err error) {
	e.once.Do(func() {
		e.mu.Lock()
		fn := e.onError
		e.mu.Unlock()
		if fn != nil {
			fn(err)
		}
	})
}
