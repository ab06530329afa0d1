package urltree

import (
	"net/url"
	"slices"
)

// Equal reports whether two trees are structurally equal: same groups, same
// segments and parameters, same query and fragment.
func Equal(a, b *Tree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Fragment == b.Fragment &&
		equalQueryParams(a.QueryParams, b.QueryParams) &&
		EqualGroups(a.Root, b.Root)
}

// EqualGroups reports whether two groups and all their descendants are equal.
// Outlet order is not significant, and a blank child outlet equals an absent
// one.
func EqualGroups(a, b *SegmentGroup) bool {
	if !EqualSegments(a.segments, b.segments) {
		return false
	}
	return equalChildren(a, b, EqualGroups)
}

func equalChildren(a, b *SegmentGroup, eq func(a, b *SegmentGroup) bool) bool {
	ac, bc := visibleChildMap(a), visibleChildMap(b)
	if len(ac) != len(bc) {
		return false
	}
	for name, x := range ac {
		y, ok := bc[name]
		if !ok || !eq(x, y) {
			return false
		}
	}
	return true
}

func visibleChildMap(g *SegmentGroup) map[string]*SegmentGroup {
	m := make(map[string]*SegmentGroup, len(g.children))
	for name, c := range g.children {
		if !c.blank() {
			m[name] = c
		}
	}
	return m
}

// EqualSegments compares paths and matrix parameters.
func EqualSegments(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path || !equalParams(a[i].Parameters, b[i].Parameters) {
			return false
		}
	}
	return true
}

// EqualPath compares paths only, ignoring matrix parameters.
func EqualPath(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Path != b[i].Path {
			return false
		}
	}
	return true
}

// ContainsTree reports whether container includes containee. With exact set
// the two must be equal (matrix parameters aside); otherwise containee may be
// a prefix of container and its query may be a subset.
func ContainsTree(container, containee *Tree, exact bool) bool {
	if exact {
		return equalQueryParams(container.QueryParams, containee.QueryParams) &&
			equalGroupPaths(container.Root, containee.Root)
	}
	return containsQueryParams(container.QueryParams, containee.QueryParams) &&
		containsGroup(container.Root, containee.Root, containee.Root.segments)
}

func equalGroupPaths(a, b *SegmentGroup) bool {
	if !EqualPath(a.segments, b.segments) {
		return false
	}
	return equalChildren(a, b, equalGroupPaths)
}

func containsGroup(container, containee *SegmentGroup, paths []Segment) bool {
	switch {
	case len(container.segments) > len(paths):
		if !EqualPath(container.segments[:len(paths)], paths) {
			return false
		}
		return len(visibleChildMap(containee)) == 0

	case len(container.segments) == len(paths):
		if !EqualPath(container.segments, paths) {
			return false
		}
		for name, c := range visibleChildMap(containee) {
			cc, ok := container.children[name]
			if !ok || !containsGroup(cc, c, c.segments) {
				return false
			}
		}
		return true

	default:
		n := len(container.segments)
		if !EqualPath(container.segments, paths[:n]) {
			return false
		}
		primary := container.children[Primary]
		if primary == nil {
			return false
		}
		return containsGroup(primary, containee, paths[n:])
	}
}

func equalParams(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func equalQueryParams(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || !slices.Equal(v, bv) {
			return false
		}
	}
	return true
}

func containsQueryParams(container, containee url.Values) bool {
	for k, v := range containee {
		if cv, ok := container[k]; !ok || !slices.Equal(v, cv) {
			return false
		}
	}
	return true
}
