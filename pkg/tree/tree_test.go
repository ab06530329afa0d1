package tree

import (
	"reflect"
	"testing"
)

// sample builds:
//
//	a
//	├── b
//	│   └── d
//	└── c
func sample() *Tree[string] {
	return New(NewNode("a",
		NewNode("b", NewNode("d")),
		NewNode("c"),
	))
}

func TestTreeRootAndLen(t *testing.T) {
	tr := sample()
	if tr.Root() != "a" {
		t.Errorf("Root() = %q, want %q", tr.Root(), "a")
	}
	if tr.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tr.Len())
	}
	if tr.RootID() != 0 {
		t.Errorf("RootID() = %d, want 0", tr.RootID())
	}
}

func TestTreeEmpty(t *testing.T) {
	tr := New[string](nil)
	if tr.RootID() != NoNode {
		t.Errorf("RootID() = %d, want NoNode", tr.RootID())
	}
	if tr.Root() != "" {
		t.Errorf("Root() = %q, want zero value", tr.Root())
	}
}

func TestTreeParent(t *testing.T) {
	tr := sample()

	tests := []struct {
		value  string
		parent string
		ok     bool
	}{
		{"a", "", false},
		{"b", "a", true},
		{"c", "a", true},
		{"d", "b", true},
		{"zz", "", false},
	}

	for _, tt := range tests {
		got, ok := tr.Parent(tt.value)
		if got != tt.parent || ok != tt.ok {
			t.Errorf("Parent(%q) = (%q, %v), want (%q, %v)", tt.value, got, ok, tt.parent, tt.ok)
		}
	}
}

func TestTreeChildrenAndFirstChild(t *testing.T) {
	tr := sample()

	if got := tr.Children("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Children(a) = %v", got)
	}
	if got := tr.Children("c"); len(got) != 0 {
		t.Errorf("Children(c) = %v, want empty", got)
	}
	if got, ok := tr.FirstChild("b"); !ok || got != "d" {
		t.Errorf("FirstChild(b) = (%q, %v)", got, ok)
	}
	if _, ok := tr.FirstChild("d"); ok {
		t.Error("FirstChild(d) should report no child")
	}
}

func TestTreeSiblings(t *testing.T) {
	tr := sample()

	if got := tr.Siblings("b"); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Siblings(b) = %v", got)
	}
	if got := tr.Siblings("a"); got != nil {
		t.Errorf("Siblings(root) = %v, want nil", got)
	}
}

func TestTreePathFromRoot(t *testing.T) {
	tr := sample()

	if got := tr.PathFromRoot("d"); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("PathFromRoot(d) = %v", got)
	}
	if got := tr.PathFromRoot("a"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("PathFromRoot(a) = %v", got)
	}
}

func TestTreeSubtreeSharesValuesNotStructure(t *testing.T) {
	type item struct{ name string }
	b, d := &item{"b"}, &item{"d"}
	tr := New(NewNode(&item{"a"}, NewNode(b, NewNode(d))))

	sub := tr.Subtree(b)
	if sub == nil || sub.Value != b {
		t.Fatalf("Subtree(b) root = %v", sub)
	}
	if len(sub.Children) != 1 || sub.Children[0].Value != d {
		t.Fatalf("Subtree(b) children = %v", sub.Children)
	}

	// Re-rooting the subtree yields a tree in which b has no parent.
	re := New(sub)
	if _, ok := re.Parent(b); ok {
		t.Error("b should be the root of the re-built tree")
	}
	if p, _ := re.Parent(d); p != b {
		t.Error("d should still hang under b")
	}
}

func TestTreeWalkPreOrder(t *testing.T) {
	var seen []string
	sample().Walk(func(_ NodeID, v string) bool {
		seen = append(seen, v)
		return true
	})
	if !reflect.DeepEqual(seen, []string{"a", "b", "d", "c"}) {
		t.Errorf("Walk order = %v", seen)
	}

	count := 0
	sample().Walk(func(_ NodeID, _ string) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Errorf("Walk should stop early, visited %d", count)
	}
}
