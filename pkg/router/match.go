package router

import (
	"github.com/vango-dev/nav/pkg/urltree"
)

// segmentMatch is the outcome of matching one route against the leading
// segments of a group.
type segmentMatch struct {
	consumed  []urltree.Segment
	lastChild int
	posParams map[string]urltree.Segment
	// params holds the positional parameters plus the matrix parameters of
	// the last consumed segment.
	params map[string]string
}

// matchRoute matches route against segments, the unconsumed part of group.
func matchRoute(group *urltree.SegmentGroup, route *Route, segments []urltree.Segment) (segmentMatch, bool) {
	if route.Path == "" && route.Matcher == nil {
		if route.pathMatch() == PathMatchFull && (group.HasChildren() || len(segments) > 0) {
			return segmentMatch{}, false
		}
		return segmentMatch{
			consumed:  []urltree.Segment{},
			posParams: map[string]urltree.Segment{},
			params:    map[string]string{},
		}, true
	}

	matcher := route.Matcher
	if matcher == nil {
		matcher = defaultURLMatcher
	}
	res, ok := matcher(segments, group, route)
	if !ok {
		return segmentMatch{}, false
	}

	params := make(map[string]string, len(res.PosParams))
	for k, v := range res.PosParams {
		params[k] = v.Path
	}
	if n := len(res.Consumed); n > 0 {
		for k, v := range res.Consumed[n-1].Parameters {
			params[k] = v
		}
	}
	posParams := res.PosParams
	if posParams == nil {
		posParams = map[string]urltree.Segment{}
	}
	return segmentMatch{
		consumed:  res.Consumed,
		lastChild: len(res.Consumed),
		posParams: posParams,
		params:    params,
	}, true
}

// isEmptyPathRoute reports whether r can match zero segments of group given
// the remaining segments.
func isEmptyPathRoute(group *urltree.SegmentGroup, remaining []urltree.Segment, r *Route) bool {
	if (group.HasChildren() || len(remaining) > 0) && r.pathMatch() == PathMatchFull {
		return false
	}
	return r.Path == "" && r.Matcher == nil
}

// isEmptyPathRedirect reports whether r is an empty-path redirect that can
// match zero segments of group.
func isEmptyPathRedirect(group *urltree.SegmentGroup, remaining []urltree.Segment, r *Route) bool {
	return isEmptyPathRoute(group, remaining, r) && r.hasRedirect()
}

// isEmptyPathMatch reports whether r is a non-redirecting empty-path route
// that can match zero segments of group.
func isEmptyPathMatch(group *urltree.SegmentGroup, remaining []urltree.Segment, r *Route) bool {
	return isEmptyPathRoute(group, remaining, r) && !r.hasRedirect()
}

// noLeftovers reports whether nothing remains to be matched for outlet.
func noLeftovers(group *urltree.SegmentGroup, segments []urltree.Segment, outlet string) bool {
	return len(segments) == 0 && !group.HasChild(outlet)
}
