package inspect

import (
	"errors"
	"fmt"

	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/router"
	"github.com/vango-dev/nav/pkg/urltree"
)

// StateJSON is the wire form of the router state.
type StateJSON struct {
	URL       string     `json:"url"`
	Navigated bool       `json:"navigated"`
	Root      *RouteJSON `json:"root"`
}

// RouteJSON is the wire form of one activated route.
type RouteJSON struct {
	Outlet    string            `json:"outlet"`
	Path      string            `json:"path,omitempty"`
	Component string            `json:"component,omitempty"`
	URL       string            `json:"url"`
	Params    map[string]string `json:"params,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Children  []*RouteJSON      `json:"children,omitempty"`
}

// TreeJSON is the wire form of a parsed URL.
type TreeJSON struct {
	URL         string              `json:"url"`
	Serialized  string              `json:"serialized"`
	Root        *GroupJSON          `json:"root"`
	QueryParams map[string][]string `json:"queryParams,omitempty"`
	Fragment    string              `json:"fragment,omitempty"`
}

// GroupJSON is the wire form of a segment group.
type GroupJSON struct {
	Segments []string              `json:"segments"`
	Children map[string]*GroupJSON `json:"children,omitempty"`
}

// EventJSON is the wire form of a router event.
type EventJSON struct {
	Type   string `json:"type"`
	ID     int64  `json:"id,omitempty"`
	URL    string `json:"url,omitempty"`
	Detail string `json:"detail"`
}

// ErrorJSON is the body of every error response.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func stateJSON(r *router.Router) StateJSON {
	st := r.State()
	return StateJSON{
		URL:       r.URL(),
		Navigated: r.Navigated(),
		Root:      routeJSON(st.Root()),
	}
}

func routeJSON(a *router.ActivatedRoute) *RouteJSON {
	out := &RouteJSON{
		Outlet:    a.Outlet,
		Component: componentName(a.Component),
	}
	if s := a.Snapshot(); s != nil {
		out.URL = urltree.NewSegmentGroup(s.URL).String()
		out.Params = s.Params
		if len(s.Data) > 0 {
			out.Data = make(map[string]string, len(s.Data))
			for k, v := range s.Data {
				out.Data[k] = fmt.Sprintf("%v", v)
			}
		}
	}
	if cfg := a.RouteConfig(); cfg != nil {
		out.Path = cfg.Path
	}
	for _, c := range a.Children() {
		out.Children = append(out.Children, routeJSON(c))
	}
	return out
}

func componentName(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%T", c)
	}
}

func treeJSON(raw string, t *urltree.Tree, serialized string) TreeJSON {
	out := TreeJSON{
		URL:        raw,
		Serialized: serialized,
		Root:       groupJSON(t.Root),
		Fragment:   t.Fragment,
	}
	if len(t.QueryParams) > 0 {
		out.QueryParams = t.QueryParams
	}
	return out
}

func groupJSON(g *urltree.SegmentGroup) *GroupJSON {
	out := &GroupJSON{Segments: make([]string, 0, len(g.Segments()))}
	for _, s := range g.Segments() {
		out.Segments = append(out.Segments, s.String())
	}
	for _, c := range g.Children() {
		if out.Children == nil {
			out.Children = make(map[string]*GroupJSON)
		}
		out.Children[c.Outlet] = groupJSON(c.Group)
	}
	return out
}

func eventJSON(e router.Event) EventJSON {
	out := EventJSON{Type: router.EventName(e), Detail: e.String()}
	switch ev := e.(type) {
	case router.NavigationStart:
		out.ID, out.URL = ev.ID, ev.URL
	case router.NavigationEnd:
		out.ID, out.URL = ev.ID, ev.URL
	case router.NavigationCancel:
		out.ID, out.URL = ev.ID, ev.URL
	case router.NavigationError:
		out.ID, out.URL = ev.ID, ev.URL
	case router.RoutesRecognized:
		out.ID, out.URL = ev.ID, ev.URL
	case router.GuardsCheckStart:
		out.ID, out.URL = ev.ID, ev.URL
	case router.GuardsCheckEnd:
		out.ID, out.URL = ev.ID, ev.URL
	case router.ResolveStart:
		out.ID, out.URL = ev.ID, ev.URL
	case router.ResolveEnd:
		out.ID, out.URL = ev.ID, ev.URL
	}
	return out
}

func errorJSON(err error) ErrorJSON {
	out := ErrorJSON{Error: err.Error()}
	var ne *naverrors.NavError
	if errors.As(err, &ne) {
		out.Code = ne.Code
	}
	return out
}
