package urltree

import (
	"net/url"
	"sort"
	"strings"
)

// Serialize renders a tree in the default grammar. Query keys and matrix
// parameters are written in sorted key order so that output is stable.
func Serialize(t *Tree) string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(serializeGroup(t.Root, true))
	b.WriteString(serializeQueryParams(t.QueryParams))
	if t.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(EncodeFragment(t.Fragment))
	}
	return b.String()
}

func serializeGroup(g *SegmentGroup, root bool) string {
	children := visibleChildren(g)
	if len(children) == 0 {
		return serializePaths(g)
	}

	if root {
		var primary string
		var named []string
		for _, c := range children {
			if c.Outlet == Primary {
				primary = serializeGroup(c.Group, false)
				continue
			}
			named = append(named, c.Outlet+":"+serializeGroup(c.Group, false))
		}
		if len(named) == 0 {
			return primary
		}
		return primary + "(" + strings.Join(named, "//") + ")"
	}

	// Below the root every child, the primary one included, is written
	// inside a single parenthesized group. A group without segments of its
	// own starts with "/(".
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if c.Outlet == Primary {
			parts = append(parts, serializeUnnamed(c.Group))
			continue
		}
		parts = append(parts, c.Outlet+":"+serializeGroup(c.Group, false))
	}
	return serializePaths(g) + "/(" + strings.Join(parts, "//") + ")"
}

// serializeUnnamed writes a primary group inside parentheses. A colon in its
// first path would read as an outlet name, so it is escaped there.
func serializeUnnamed(g *SegmentGroup) string {
	out := serializeGroup(g, false)
	if len(g.segments) == 0 || !strings.Contains(g.segments[0].Path, ":") {
		return out
	}
	first := EncodeSegment(g.segments[0].Path)
	return strings.ReplaceAll(first, ":", "%3A") + out[len(first):]
}

// visibleChildren returns the children that are not blank.
func visibleChildren(g *SegmentGroup) []Child {
	all := g.Children()
	out := make([]Child, 0, len(all))
	for _, c := range all {
		if !c.Group.blank() {
			out = append(out, c)
		}
	}
	return out
}

func serializePaths(g *SegmentGroup) string {
	parts := make([]string, len(g.segments))
	for i, s := range g.segments {
		parts[i] = serializePath(s)
	}
	return strings.Join(parts, "/")
}

func serializePath(s Segment) string {
	return EncodeSegment(s.Path) + serializeMatrixParams(s.Parameters)
}

func serializeMatrixParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := sortedKeys(params)
	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(';')
		b.WriteString(EncodeSegment(k))
		b.WriteByte('=')
		b.WriteString(EncodeSegment(params[k]))
	}
	return b.String()
}

func serializeQueryParams(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, EncodeQuery(k)+"="+EncodeQuery(v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
