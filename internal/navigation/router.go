package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"beer-tasting-go/internal/session"

	"go.uber.org/zap"
)

const maxRedirects = 10

var (
	ErrNoMatch          = errors.New("navigation: no route matches path")
	ErrUnknownRoute     = errors.New("navigation: unknown route name")
	ErrMissingParam     = errors.New("navigation: missing route param")
	ErrTooManyRedirects = errors.New("navigation: too many redirects")
)

// Location is a resolved navigation target.
type Location struct {
	Name   string
	Path   string
	Params map[string]string
}

func (l Location) Param(name string) string { return l.Params[name] }

func (l Location) String() string {
	if l.Name == "" {
		return l.Path
	}
	return l.Name + " (" + l.Path + ")"
}

// Guard runs before a navigation is committed. A non-nil redirect aborts the
// current target and navigates there instead; the redirect may set Name (with
// Params) or Path.
type Guard func(ctx context.Context, to, from Location) (redirect *Location, err error)

type compiledRoute struct {
	name     string
	pattern  string
	segments []string
}

// Router holds the compiled route table, the registered guards and the history stack.
type Router struct {
	routes []compiledRoute
	byName map[string]compiledRoute
	store  session.Store
	logger *zap.Logger

	mu      sync.Mutex
	guards  []Guard
	history []Location
}

// StartLocation is the "from" location of the very first navigation.
var StartLocation = Location{Path: "/"}

func NewRouter(routes []Route, store session.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{byName: map[string]compiledRoute{}, store: store, logger: logger}
	r.compile(routes, "")
	return r
}

func (r *Router) compile(routes []Route, parent string) {
	for _, rt := range routes {
		full := joinPath(parent, rt.Path)
		if rt.Name != "" {
			cr := compiledRoute{name: rt.Name, pattern: full, segments: splitPath(full)}
			r.routes = append(r.routes, cr)
			r.byName[rt.Name] = cr
		}
		r.compile(rt.Children, full)
	}
}

func joinPath(parent, p string) string {
	switch {
	case strings.HasPrefix(p, "/"):
		return p
	case p == "":
		if parent == "" {
			return "/"
		}
		return parent
	default:
		return strings.TrimRight(parent, "/") + "/" + p
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// normalize drops query string, fragment and trailing slash.
func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Resolve matches path against the table in declaration order.
func (r *Router) Resolve(path string) (Location, error) {
	p := normalize(path)
	segs := splitPath(p)
	for _, cr := range r.routes {
		if params, ok := cr.match(segs); ok {
			return Location{Name: cr.name, Path: p, Params: params}, nil
		}
	}
	return Location{Path: p, Params: map[string]string{}}, ErrNoMatch
}

func (cr compiledRoute) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(cr.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range cr.segments {
		if name, ok := strings.CutPrefix(s, ":"); ok {
			v, err := url.PathUnescape(segs[i])
			if err != nil || v == "" {
				return nil, false
			}
			params[name] = v
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// ResolveName builds the location of a named route, filling in its params.
func (r *Router) ResolveName(name string, params map[string]string) (Location, error) {
	cr, ok := r.byName[name]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	out := make([]string, len(cr.segments))
	used := map[string]string{}
	for i, s := range cr.segments {
		pname, isParam := strings.CutPrefix(s, ":")
		if !isParam {
			out[i] = s
			continue
		}
		v := params[pname]
		if v == "" {
			return Location{}, fmt.Errorf("%w: %s needs %q", ErrMissingParam, name, pname)
		}
		out[i] = url.PathEscape(v)
		used[pname] = v
	}
	return Location{Name: name, Path: "/" + strings.Join(out, "/"), Params: used}, nil
}

// BeforeEach registers a guard. Guards run in registration order; the first redirect wins.
func (r *Router) BeforeEach(g Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards = append(r.guards, g)
}

// Current is the committed location, or StartLocation before the first navigation.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return StartLocation
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of the committed locations, oldest first.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Location(nil), r.history...)
}

// Push navigates to path and appends the final location to the history.
func (r *Router) Push(ctx context.Context, path string) (Location, error) {
	return r.navigate(ctx, path, false)
}

// Replace navigates to path and overwrites the current history entry.
func (r *Router) Replace(ctx context.Context, path string) (Location, error) {
	return r.navigate(ctx, path, true)
}

func (r *Router) navigate(ctx context.Context, path string, replace bool) (Location, error) {
	to, resolveErr := r.Resolve(path)
	from := r.Current()

	r.mu.Lock()
	guards := append([]Guard(nil), r.guards...)
	r.mu.Unlock()

	for redirects := 0; ; redirects++ {
		redirect, err := runGuards(ctx, guards, to, from)
		if err != nil {
			return Location{}, err
		}
		if redirect == nil {
			break
		}
		if redirects >= maxRedirects {
			return Location{}, fmt.Errorf("%w: last target %s", ErrTooManyRedirects, redirect.String())
		}
		r.logger.Debug("navigation redirected", zap.String("from", to.String()), zap.String("to", redirect.String()))
		if redirect.Name != "" {
			to, resolveErr = r.ResolveName(redirect.Name, redirect.Params)
		} else {
			to, resolveErr = r.Resolve(redirect.Path)
		}
		if resolveErr != nil && !errors.Is(resolveErr, ErrNoMatch) {
			return Location{}, resolveErr
		}
	}
	if resolveErr != nil {
		return Location{}, fmt.Errorf("%w: %s", resolveErr, to.Path)
	}

	r.mu.Lock()
	if replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = to
	} else {
		r.history = append(r.history, to)
	}
	r.mu.Unlock()
	return to, nil
}

func runGuards(ctx context.Context, guards []Guard, to, from Location) (*Location, error) {
	for _, g := range guards {
		redirect, err := g(ctx, to, from)
		if err != nil {
			return nil, err
		}
		if redirect != nil {
			return redirect, nil
		}
	}
	return nil, nil
}
