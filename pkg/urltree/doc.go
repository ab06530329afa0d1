// Package urltree implements the in-memory model of a navigation URL and its
// string grammar.
//
// A URL is a tree: the root SegmentGroup never holds segments itself; its
// children are keyed by outlet name, exactly one of which may be the primary
// outlet. Every group holds an ordered list of Segments, and each Segment
// carries matrix parameters.
//
// # Grammar
//
//	url      := "/"? group ("?" query)? ("#" fragment)?
//	group    := segment ("/" segment)* ("/" "(" outlets ")")? | "/"? "(" outlets ")"
//	segment  := pathChars (";" key "=" value)*
//	outlets  := outlet ("//" outlet)*
//	outlet   := name ":" group | group
//
// Examples:
//
//	/team/33;open=true/(user/11//aux:chat)?x=1#frag
//	/inbox(popup:compose)
//
// Path and parameter tokens are percent-decoded on parse. Serialization
// re-encodes them with a restricted table that leaves @ : $ , unescaped so
// that URLs stay readable.
//
// A group without segments of its own but with children is written "/(...)",
// so the primary outlet of "//(a//aux:b)" holds the outlets a and aux.
// Empty-path segments without parameters are dropped when a group is built,
// and child outlets that hold no segments at any depth are not written.
//
// # Round trip
//
// For any Tree t without parameters on empty-path segments:
//
//	Equal(Parse(Serialize(t)), t) == true
package urltree
