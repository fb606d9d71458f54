package routing

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// HandlerID identifies the component that renders a route.
type HandlerID string

// NoMatch is returned when no route matches a path.
const NoMatch HandlerID = ""

// Route maps a pattern to a handler.
type Route struct {
	Pattern string    `yaml:"pattern" toml:"pattern"`
	Handler HandlerID `yaml:"handler" toml:"handler"`
}

// RouteContext carries one routing request: the normalized path and, once
// matched, the resolved handler.
type RouteContext struct {
	Path    string
	Handler HandlerID
}

// Matched reports whether a handler was resolved.
func (c *RouteContext) Matched() bool {
	return c.Handler != NoMatch
}

// MatchFunc decides whether a relative path satisfies a pattern.
type MatchFunc func(pattern, path string) bool

// TableOption configures a Table.
type TableOption func(*Table)

// WithMatcher replaces the default glob matcher.
func WithMatcher(match MatchFunc) TableOption {
	return func(t *Table) {
		t.match = match
		t.validate = nil
	}
}

// Table is an ordered, immutable set of routes.
type Table struct {
	routes   []Route
	match    MatchFunc
	validate func(pattern string) bool
}

// NewTable builds a table from routes in registration order.
func NewTable(routes []Route, opts ...TableOption) (*Table, error) {
	t := &Table{
		routes:   append([]Route(nil), routes...),
		match:    GlobMatch,
		validate: validGlob,
	}
	for _, opt := range opts {
		opt(t)
	}

	for i, r := range t.routes {
		if r.Handler == NoMatch {
			return nil, fmt.Errorf("%w: route %d (%q) has no handler", ErrInvalidPattern, i, r.Pattern)
		}
		if t.validate != nil && !t.validate(r.Pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, r.Pattern)
		}
	}
	return t, nil
}

// Match returns the handler of the first route whose pattern matches path.
func (t *Table) Match(path string) HandlerID {
	for _, r := range t.routes {
		if t.match(r.Pattern, path) {
			return r.Handler
		}
	}
	return NoMatch
}

// Route resolves ctx.Path and stores the result in ctx.Handler.
func (t *Table) Route(ctx *RouteContext) {
	ctx.Handler = t.Match(ctx.Path)
}

// Routes returns a copy of the registered routes.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// GlobMatch matches with doublestar semantics after trimming leading and
// trailing slashes from both sides, so "/a" matches "a" and "a/".
func GlobMatch(pattern, path string) bool {
	p := strings.Trim(pattern, "/")
	name := strings.Trim(path, "/")
	if p == name {
		return true
	}
	ok, err := doublestar.Match(p, name)
	return err == nil && ok
}

func validGlob(pattern string) bool {
	return doublestar.ValidatePattern(strings.Trim(pattern, "/"))
}
