package shell

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrInvalidPattern is returned for patterns that are not absolute paths.
	ErrInvalidPattern = errors.New("route pattern must start with /")
	// ErrDuplicateRoute is returned when two routes share a pattern or name.
	ErrDuplicateRoute = errors.New("duplicate route")
)

// NoMatch names the dispatch outcome when no declared route matches.
const NoMatch = "none"

// Route associates a path pattern with the page rendered for it.
type Route struct {
	Name    string
	Pattern string
	Page    Page
}

// Table is an ordered set of routes. Match evaluates them in declaration order.
type Table struct {
	routes []Route
}

// NewTable validates and freezes the given routes.
func NewTable(routes ...Route) (Table, error) {
	seenPattern := make(map[string]struct{}, len(routes))
	seenName := make(map[string]struct{}, len(routes))
	out := make([]Route, 0, len(routes))
	for _, route := range routes {
		if !strings.HasPrefix(route.Pattern, "/") {
			return Table{}, fmt.Errorf("%w: %q", ErrInvalidPattern, route.Pattern)
		}
		if route.Page == nil {
			return Table{}, fmt.Errorf("route %q has no page", route.Pattern)
		}
		pattern := normalizePath(route.Pattern)
		if route.Name == "" {
			route.Name = pattern
		}
		if route.Name == NoMatch {
			return Table{}, fmt.Errorf("route name %q is reserved", NoMatch)
		}
		if _, ok := seenPattern[pattern]; ok {
			return Table{}, fmt.Errorf("%w: pattern %q", ErrDuplicateRoute, pattern)
		}
		if _, ok := seenName[route.Name]; ok {
			return Table{}, fmt.Errorf("%w: name %q", ErrDuplicateRoute, route.Name)
		}
		seenPattern[pattern] = struct{}{}
		seenName[route.Name] = struct{}{}
		route.Pattern = pattern
		out = append(out, route)
	}
	return Table{routes: out}, nil
}

// Match returns the first route whose pattern equals the normalized path.
func (t Table) Match(p string) (Route, bool) {
	p = normalizePath(p)
	for _, route := range t.routes {
		if route.Pattern == p {
			return route, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the routes in declaration order.
func (t Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// normalizePath cleans the path, drops a trailing slash and folds case.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.ToLower(path.Clean(p))
}
