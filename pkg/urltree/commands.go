package urltree

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Command errors.
var (
	ErrRootMatrixParams  = errors.New("urltree: root segment cannot have matrix parameters")
	ErrOutletsNotLast    = errors.New("urltree: outlets command has to be the last command")
	ErrTooManyDoubleDots = errors.New("urltree: invalid number of '../'")
)

// MatrixParams is a navigation command that attaches matrix parameters to the
// preceding path command, or to the anchor segment when it comes first.
type MatrixParams map[string]string

// Outlets is a navigation command that addresses outlets by name. A nil
// command list removes the outlet.
type Outlets map[string][]any

// Anchor is the position that relative commands are applied against: a group
// of the current tree and the index of the last segment consumed there. An
// index of -1 means the anchor consumed nothing and commands apply to the
// group's children.
type Anchor struct {
	Group         *SegmentGroup
	LastPathIndex int
}

// CreateTree applies navigation commands to current and returns the new tree
// with the given query and fragment.
//
// Commands are strings (the first may contain "/", "..", "." and a leading "/"
// for an absolute navigation), MatrixParams and a trailing Outlets. With a nil
// anchor commands are resolved against the root.
func CreateTree(current *Tree, anchor *Anchor, commands []any, query url.Values, fragment string) (*Tree, error) {
	if len(commands) == 0 {
		return replaceInTree(current, current.Root, current.Root, query, fragment), nil
	}

	nav, err := computeNavigation(commands)
	if err != nil {
		return nil, err
	}
	if nav.toRoot() {
		return replaceInTree(current, current.Root, NewSegmentGroup(nil), query, fragment), nil
	}

	pos, err := findStartingPosition(nav, current, anchor)
	if err != nil {
		return nil, err
	}

	var group *SegmentGroup
	if pos.processChildren {
		group = updateGroupChildren(pos.group, pos.index, nav.commands)
	} else {
		group = updateGroup(pos.group, pos.index, nav.commands)
	}
	return replaceInTree(current, pos.group, group, query, fragment), nil
}

type navigation struct {
	absolute   bool
	doubleDots int
	commands   []any
}

func (n navigation) toRoot() bool {
	if !n.absolute || len(n.commands) != 1 {
		return false
	}
	s, ok := n.commands[0].(string)
	return ok && s == "/"
}

func computeNavigation(commands []any) (navigation, error) {
	if s, ok := commands[0].(string); ok && len(commands) == 1 && s == "/" {
		return navigation{absolute: true, commands: commands}, nil
	}

	nav := navigation{}
	for i, cmd := range commands {
		s, isString := cmd.(string)
		if !isString || i > 0 {
			nav.commands = append(nav.commands, cmd)
			continue
		}
		for j, part := range strings.Split(s, "/") {
			switch {
			case j == 0 && part == ".":
			case j == 0 && part == "":
				nav.absolute = true
			case part == "..":
				nav.doubleDots++
			case part != "":
				nav.commands = append(nav.commands, part)
			}
		}
	}

	if nav.absolute && len(nav.commands) > 0 && isMatrixParams(nav.commands[0]) {
		return navigation{}, ErrRootMatrixParams
	}
	for i, cmd := range nav.commands {
		if _, ok := cmd.(Outlets); ok && i != len(nav.commands)-1 {
			return navigation{}, ErrOutletsNotLast
		}
	}
	return nav, nil
}

type position struct {
	group           *SegmentGroup
	processChildren bool
	index           int
}

func findStartingPosition(nav navigation, current *Tree, anchor *Anchor) (position, error) {
	if nav.absolute || anchor == nil || anchor.Group == nil {
		return position{group: current.Root, processChildren: true}, nil
	}
	if anchor.LastPathIndex == -1 {
		return position{group: anchor.Group, processChildren: true}, nil
	}
	modifier := 1
	if len(nav.commands) > 0 && isMatrixParams(nav.commands[0]) {
		modifier = 0
	}
	return applyDoubleDots(current.Root, anchor.Group, anchor.LastPathIndex+modifier, nav.doubleDots)
}

// applyDoubleDots climbs out of g once per "..", moving to the enclosing
// group whenever the current one runs out of segments.
func applyDoubleDots(root, g *SegmentGroup, index, dd int) (position, error) {
	parents := parentIndex(root)
	for dd > index {
		dd -= index
		p, ok := parents[g]
		if !ok || p == nil {
			return position{}, ErrTooManyDoubleDots
		}
		g = p
		index = len(g.segments)
	}
	return position{group: g, index: index - dd}, nil
}

// parentIndex maps every group of the tree rooted at root to its parent. It
// is derived from the tree itself so that groups shared with other trees
// resolve to their parent in this one.
func parentIndex(root *SegmentGroup) map[*SegmentGroup]*SegmentGroup {
	out := map[*SegmentGroup]*SegmentGroup{root: nil}
	var walk func(g *SegmentGroup)
	walk = func(g *SegmentGroup) {
		for _, c := range g.children {
			if _, seen := out[c]; seen {
				continue
			}
			out[c] = g
			walk(c)
		}
	}
	walk(root)
	return out
}

func isMatrixParams(cmd any) bool {
	_, ok := cmd.(MatrixParams)
	return ok
}

// commandPath returns the path a command stands for. Outlets commands stand
// for their primary outlet's first command, if any.
func commandPath(cmd any) (string, bool) {
	switch c := cmd.(type) {
	case Outlets:
		primary, ok := c[Primary]
		if !ok || len(primary) == 0 {
			return "", false
		}
		return commandPath(primary[0])
	case string:
		return c, true
	case MatrixParams:
		return "", false
	default:
		return fmt.Sprint(c), true
	}
}

func outletsOf(commands []any) Outlets {
	if o, ok := commands[0].(Outlets); ok {
		return o
	}
	return Outlets{Primary: commands}
}

func updateGroup(g *SegmentGroup, start int, commands []any) *SegmentGroup {
	if g == nil {
		g = NewSegmentGroup(nil)
	}
	if len(g.segments) == 0 && g.HasChildren() {
		return updateGroupChildren(g, start, commands)
	}

	m := prefixedWith(g, start, commands)
	rest := commands[m.commandIndex:]
	switch {
	case m.match && m.pathIndex < len(g.segments):
		primary := NewSegmentGroup(g.segments[m.pathIndex:], g.Children()...)
		split := NewSegmentGroup(g.segments[:m.pathIndex], Child{Outlet: Primary, Group: primary})
		return updateGroupChildren(split, 0, rest)
	case m.match && len(rest) == 0:
		return NewSegmentGroup(g.segments)
	case m.match && !g.HasChildren():
		return createGroup(g, start, commands)
	case m.match:
		return updateGroupChildren(g, 0, rest)
	default:
		return createGroup(g, start, commands)
	}
}

func updateGroupChildren(g *SegmentGroup, start int, commands []any) *SegmentGroup {
	if len(commands) == 0 {
		return NewSegmentGroup(g.segments)
	}

	outlets := outletsOf(commands)
	var children []Child
	// Existing outlets keep their position; new ones follow.
	for _, c := range g.Children() {
		cmds, addressed := outlets[c.Outlet]
		switch {
		case !addressed:
			children = append(children, c)
		case cmds != nil:
			children = append(children, Child{Outlet: c.Outlet, Group: updateGroup(c.Group, start, cmds)})
		}
	}
	for _, name := range sortedOutletNames(outlets) {
		cmds := outlets[name]
		if cmds == nil || g.HasChild(name) {
			continue
		}
		children = append(children, Child{Outlet: name, Group: updateGroup(nil, start, cmds)})
	}
	return NewSegmentGroup(g.segments, children...)
}

type prefixMatch struct {
	match        bool
	pathIndex    int
	commandIndex int
}

func prefixedWith(g *SegmentGroup, start int, commands []any) prefixMatch {
	ci, pi := 0, start
	for pi < len(g.segments) {
		if ci >= len(commands) {
			return prefixMatch{}
		}
		seg := g.segments[pi]
		if isMatrixParams(commands[ci]) {
			return prefixMatch{}
		}
		path, ok := commandPath(commands[ci])
		if !ok {
			if pi > 0 {
				break
			}
			return prefixMatch{}
		}
		var next any
		if ci < len(commands)-1 {
			next = commands[ci+1]
		}
		if mp, isMP := next.(MatrixParams); ok && path != "" && isMP {
			if !segmentMatches(path, mp, seg) {
				return prefixMatch{}
			}
			ci += 2
		} else {
			if !segmentMatches(path, nil, seg) {
				return prefixMatch{}
			}
			ci++
		}
		pi++
	}
	return prefixMatch{match: true, pathIndex: pi, commandIndex: ci}
}

func createGroup(g *SegmentGroup, start int, commands []any) *SegmentGroup {
	paths := append([]Segment(nil), g.segments[:min(start, len(g.segments))]...)
	for i := 0; i < len(commands); {
		if o, ok := commands[i].(Outlets); ok {
			return NewSegmentGroup(paths, createChildren(o)...)
		}
		if mp, ok := commands[i].(MatrixParams); ok && i == 0 {
			if start < len(g.segments) {
				paths = append(paths, NewSegment(g.segments[start].Path, copyParams(mp)))
			}
			i++
			continue
		}
		path, _ := commandPath(commands[i])
		var next any
		if i < len(commands)-1 {
			next = commands[i+1]
		}
		if mp, ok := next.(MatrixParams); ok && path != "" {
			paths = append(paths, NewSegment(path, copyParams(mp)))
			i += 2
			continue
		}
		paths = append(paths, NewSegment(path, nil))
		i++
	}
	return NewSegmentGroup(paths)
}

func createChildren(outlets Outlets) []Child {
	var out []Child
	for _, name := range sortedOutletNames(outlets) {
		if cmds := outlets[name]; cmds != nil {
			out = append(out, Child{Outlet: name, Group: createGroup(NewSegmentGroup(nil), 0, cmds)})
		}
	}
	return out
}

func segmentMatches(path string, params map[string]string, s Segment) bool {
	if params == nil {
		params = map[string]string{}
	}
	return path == s.Path && equalParams(params, s.Parameters)
}

func copyParams(mp MatrixParams) map[string]string {
	out := make(map[string]string, len(mp))
	for k, v := range mp {
		out[k] = v
	}
	return out
}

// sortedOutletNames orders outlet names primary first, then by name.
func sortedOutletNames(o Outlets) []string {
	names := make([]string, 0, len(o))
	if _, ok := o[Primary]; ok {
		names = append(names, Primary)
	}
	rest := make(map[string]string, len(o))
	for name := range o {
		if name != Primary {
			rest[name] = name
		}
	}
	return append(names, sortedKeys(rest)...)
}

// replaceInTree rebuilds the path from the root down to old, swapping in
// replacement. Untouched branches are shared with current.
func replaceInTree(current *Tree, old, replacement *SegmentGroup, query url.Values, fragment string) *Tree {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	if current.Root == old {
		return New(replacement, q, fragment)
	}
	return New(replaceGroup(current.Root, old, replacement), q, fragment)
}

func replaceGroup(g, old, replacement *SegmentGroup) *SegmentGroup {
	children := make([]Child, 0, g.NumberOfChildren())
	for _, c := range g.Children() {
		if c.Group == old {
			children = append(children, Child{Outlet: c.Outlet, Group: replacement})
			continue
		}
		children = append(children, Child{Outlet: c.Outlet, Group: replaceGroup(c.Group, old, replacement)})
	}
	return NewSegmentGroup(g.segments, children...)
}
