package urltree

import (
	"net/url"
	"sort"
)

// Primary is the name of the default, unnamed outlet.
const Primary = "primary"

// Segment is one slash-delimited path element and its matrix parameters.
// Segments are values; their Parameters map must be treated as read-only.
type Segment struct {
	Path       string
	Parameters map[string]string
}

// NewSegment creates a segment. A nil params map is replaced by an empty one.
func NewSegment(path string, params map[string]string) Segment {
	if params == nil {
		params = map[string]string{}
	}
	return Segment{Path: path, Parameters: params}
}

// String returns the serialized form of the segment, e.g. "33;open=true".
func (s Segment) String() string {
	return serializePath(s)
}

// Child pairs an outlet name with the group mounted there.
type Child struct {
	Outlet string
	Group  *SegmentGroup
}

// SegmentGroup is an ordered list of segments plus named child groups.
// Groups are immutable once constructed.
type SegmentGroup struct {
	segments []Segment
	children map[string]*SegmentGroup
	outlets  []string // insertion order
	parent   *SegmentGroup
}

// NewSegmentGroup creates a group. Children keep the order given, except
// that the primary outlet is always reported first. A later child with the
// same outlet replaces an earlier one in place.
//
// A child's parent is set to the first group it is placed in; groups that
// are re-used while building a derived tree keep pointing at their original
// parent.
//
// Segments with an empty path and no parameters address nothing and are
// dropped, so "/a/" and "/a" denote the same tree.
func NewSegmentGroup(segments []Segment, children ...Child) *SegmentGroup {
	g := &SegmentGroup{
		segments: dropEmptySegments(segments),
		children: make(map[string]*SegmentGroup, len(children)),
	}
	for _, c := range children {
		if c.Group == nil {
			continue
		}
		if _, exists := g.children[c.Outlet]; !exists {
			g.outlets = append(g.outlets, c.Outlet)
		}
		g.children[c.Outlet] = c.Group
		if c.Group.parent == nil {
			c.Group.parent = g
		}
	}
	return g
}

// NewSegmentGroupFromMap creates a group from an unordered outlet map. Named
// outlets are ordered by name.
func NewSegmentGroupFromMap(segments []Segment, children map[string]*SegmentGroup) *SegmentGroup {
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]Child, 0, len(names))
	for _, name := range names {
		list = append(list, Child{Outlet: name, Group: children[name]})
	}
	return NewSegmentGroup(segments, list...)
}

func dropEmptySegments(segments []Segment) []Segment {
	for i, s := range segments {
		if s.Path != "" || len(s.Parameters) > 0 {
			continue
		}
		out := make([]Segment, i, len(segments)-1)
		copy(out, segments[:i])
		for _, s := range segments[i+1:] {
			if s.Path != "" || len(s.Parameters) > 0 {
				out = append(out, s)
			}
		}
		return out
	}
	return segments
}

// blank reports whether the group holds no segments anywhere below it. A
// blank child is serialized as absent and compares equal to an absent one.
func (g *SegmentGroup) blank() bool {
	if len(g.segments) > 0 {
		return false
	}
	for _, c := range g.children {
		if !c.blank() {
			return false
		}
	}
	return true
}

// Segments returns the group's own segments.
func (g *SegmentGroup) Segments() []Segment {
	return g.segments
}

// Parent returns the group this one was first placed in, or nil.
func (g *SegmentGroup) Parent() *SegmentGroup {
	return g.parent
}

// Child returns the group mounted at outlet, or nil.
func (g *SegmentGroup) Child(outlet string) *SegmentGroup {
	return g.children[outlet]
}

// HasChild reports whether a group is mounted at outlet.
func (g *SegmentGroup) HasChild(outlet string) bool {
	_, ok := g.children[outlet]
	return ok
}

// HasChildren reports whether the group has any child outlet.
func (g *SegmentGroup) HasChildren() bool {
	return len(g.children) > 0
}

// NumberOfChildren returns the number of child outlets.
func (g *SegmentGroup) NumberOfChildren() int {
	return len(g.children)
}

// Children returns the child outlets, primary first, then the named outlets
// in the order they were added.
func (g *SegmentGroup) Children() []Child {
	out := make([]Child, 0, len(g.outlets))
	if p, ok := g.children[Primary]; ok {
		out = append(out, Child{Outlet: Primary, Group: p})
	}
	for _, name := range g.outlets {
		if name == Primary {
			continue
		}
		out = append(out, Child{Outlet: name, Group: g.children[name]})
	}
	return out
}

// ChildMap returns a copy of the outlet map.
func (g *SegmentGroup) ChildMap() map[string]*SegmentGroup {
	m := make(map[string]*SegmentGroup, len(g.children))
	for k, v := range g.children {
		m[k] = v
	}
	return m
}

// String serializes the group's paths, e.g. "team/33".
func (g *SegmentGroup) String() string {
	return serializePaths(g)
}

// Tree is a parsed URL. Trees are immutable; every transformation produces a
// new Tree.
type Tree struct {
	Root        *SegmentGroup
	QueryParams url.Values
	// Fragment is the decoded fragment; empty means no fragment.
	Fragment string
}

// New creates a tree. A nil root becomes an empty group and nil query
// parameters become an empty set.
func New(root *SegmentGroup, queryParams url.Values, fragment string) *Tree {
	if root == nil {
		root = NewSegmentGroup(nil)
	}
	if queryParams == nil {
		queryParams = url.Values{}
	}
	return &Tree{Root: root, QueryParams: queryParams, Fragment: fragment}
}

// Empty returns the tree of "/".
func Empty() *Tree {
	return New(nil, nil, "")
}

// String serializes the tree with the default serializer.
func (t *Tree) String() string {
	return DefaultSerializer{}.Serialize(t)
}
