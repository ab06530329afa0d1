package router

import (
	naverrors "github.com/vango-dev/nav/internal/errors"
	"github.com/vango-dev/nav/pkg/tree"
)

// stateBuilder merges a future snapshot into the previous live state without
// touching live routes: the snapshots reused and reattached routes advance
// to are recorded on the new state and handed over when it is bound.
type stateBuilder struct {
	strategy ReuseStrategy
	future   *StateSnapshot
	futures  map[*ActivatedRoute]*RouteSnapshot
}

// createRouterState merges the future snapshot into the previous live state.
// Live routes the strategy reuses keep their identity; stored routes are
// reattached; everything else is created fresh.
func createRouterState(strategy ReuseStrategy, future *StateSnapshot, prev *RouterState) (*RouterState, error) {
	b := &stateBuilder{
		strategy: strategy,
		future:   future,
		futures:  make(map[*ActivatedRoute]*RouteSnapshot),
	}
	var prevRoot *tree.Node[*ActivatedRoute]
	if prev != nil {
		prevRoot = prev.tree.NodeAt(prev.tree.RootID())
	}
	root, err := b.createNode(future.Root(), prevRoot)
	if err != nil {
		return nil, err
	}
	rs := newRouterState(root, future)
	rs.futures = b.futures
	return rs, nil
}

func (b *stateBuilder) createNode(curr *RouteSnapshot, prev *tree.Node[*ActivatedRoute]) (*tree.Node[*ActivatedRoute], error) {
	if prev != nil && b.strategy.ShouldReuseRoute(curr, prev.Value.Snapshot()) {
		b.futures[prev.Value] = curr
		children, err := b.createOrReuseChildren(curr, prev)
		if err != nil {
			return nil, err
		}
		return tree.NewNode(prev.Value, children...), nil
	}

	if stored := b.strategy.Retrieve(curr); stored != nil {
		if err := b.setFutureSnapshots(curr, stored.route); err != nil {
			return nil, err
		}
		return stored.route, nil
	}

	value := newActivatedRoute(curr)
	var children []*tree.Node[*ActivatedRoute]
	for _, c := range b.future.tree.Children(curr) {
		n, err := b.createNode(c, nil)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return tree.NewNode(value, children...), nil
}

func (b *stateBuilder) createOrReuseChildren(curr *RouteSnapshot, prev *tree.Node[*ActivatedRoute]) ([]*tree.Node[*ActivatedRoute], error) {
	var out []*tree.Node[*ActivatedRoute]
	for _, child := range b.future.tree.Children(curr) {
		var match *tree.Node[*ActivatedRoute]
		for _, p := range prev.Children {
			if b.strategy.ShouldReuseRoute(child, p.Value.Snapshot()) {
				match = p
				break
			}
		}
		n, err := b.createNode(child, match)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// setFutureSnapshots records the snapshots a reattached subtree advances to.
// The shapes must agree.
func (b *stateBuilder) setFutureSnapshots(curr *RouteSnapshot, stored *tree.Node[*ActivatedRoute]) error {
	if curr.RouteConfig != stored.Value.RouteConfig() {
		return naverrors.New(naverrors.CodeReattachMismatch).
			WithDetail("Cannot reattach a route snapshot created from a different route")
	}
	children := b.future.tree.Children(curr)
	if len(children) != len(stored.Children) {
		return naverrors.New(naverrors.CodeReattachMismatch).
			WithDetail("Cannot reattach a route snapshot with a different number of children")
	}
	b.futures[stored.Value] = curr
	for i, c := range children {
		if err := b.setFutureSnapshots(c, stored.Children[i]); err != nil {
			return err
		}
	}
	return nil
}
