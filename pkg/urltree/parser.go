package urltree

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseError reports a URL that does not follow the grammar.
type ParseError struct {
	// URL is the complete input.
	URL string
	// Remaining is the unconsumed input at the point of failure.
	Remaining string
	// Reason describes what was expected.
	Reason string
	// Err is an underlying decoding error, if any.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("urltree: cannot parse url %q: %s", e.URL, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Serializer converts between URL strings and trees.
type Serializer interface {
	Parse(url string) (*Tree, error)
	Serialize(t *Tree) string
}

// DefaultSerializer implements the grammar documented on the package.
type DefaultSerializer struct{}

// Parse parses a URL string into a tree.
func (DefaultSerializer) Parse(u string) (*Tree, error) {
	return Parse(u)
}

// Serialize renders a tree as a URL string.
func (DefaultSerializer) Serialize(t *Tree) string {
	return Serialize(t)
}

// Parse parses a URL string into a tree with the default grammar.
func Parse(u string) (*Tree, error) {
	p := &parser{url: u, remaining: u}

	root, err := p.parseRootSegment()
	if err != nil {
		return nil, err
	}
	query, err := p.parseQueryParams()
	if err != nil {
		return nil, err
	}
	fragment, err := p.parseFragment()
	if err != nil {
		return nil, err
	}
	if p.remaining != "" {
		return nil, p.fail("unexpected trailing input")
	}
	return New(root, query, fragment), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(u string) *Tree {
	t, err := Parse(u)
	if err != nil {
		panic(err)
	}
	return t
}

// parser is a single-pass recursive-descent parser over a shrinking cursor.
type parser struct {
	url       string
	remaining string
}

func (p *parser) fail(reason string) *ParseError {
	return &ParseError{URL: p.url, Remaining: p.remaining, Reason: reason}
}

func (p *parser) failDecode(err error) *ParseError {
	return &ParseError{URL: p.url, Remaining: p.remaining, Reason: err.Error(), Err: err}
}

func (p *parser) peekStartsWith(s string) bool {
	return strings.HasPrefix(p.remaining, s)
}

// consumeOptional consumes s if it is next.
func (p *parser) consumeOptional(s string) bool {
	if p.peekStartsWith(s) {
		p.remaining = p.remaining[len(s):]
		return true
	}
	return false
}

// capture consumes s or fails.
func (p *parser) capture(s string) error {
	if !p.consumeOptional(s) {
		return p.fail(fmt.Sprintf("expected %q", s))
	}
	return nil
}

func (p *parser) parseRootSegment() (*SegmentGroup, error) {
	p.consumeOptional("/")
	if p.remaining == "" || p.peekStartsWith("?") || p.peekStartsWith("#") {
		return NewSegmentGroup(nil), nil
	}
	// The root group never holds segments of its own.
	children, err := p.parseChildren()
	if err != nil {
		return nil, err
	}
	return NewSegmentGroup(nil, children...), nil
}

func (p *parser) parseChildren() ([]Child, error) {
	if p.remaining == "" {
		return nil, nil
	}

	var (
		segments []Segment
		nested   []Child
	)
	// A leading "/(" opens the children of a group without segments.
	if !p.peekStartsWith("/(") {
		p.consumeOptional("/")
		if !p.peekStartsWith("(") {
			s, err := p.parseSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, s)
		}
		for p.peekStartsWith("/") && !p.peekStartsWith("//") && !p.peekStartsWith("/(") {
			if err := p.capture("/"); err != nil {
				return nil, err
			}
			s, err := p.parseSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, s)
		}
	}

	if p.peekStartsWith("/(") {
		if err := p.capture("/"); err != nil {
			return nil, err
		}
		var err error
		if nested, err = p.parseParens(true); err != nil {
			return nil, err
		}
	}

	var res []Child
	if p.peekStartsWith("(") {
		var err error
		if res, err = p.parseParens(false); err != nil {
			return nil, err
		}
	}
	if primary := NewSegmentGroup(segments, nested...); !primary.blank() {
		res = append(res, Child{Outlet: Primary, Group: primary})
	}
	return res, nil
}

func (p *parser) parseSegment() (Segment, error) {
	path := matchSegment(p.remaining)
	if path == "" && p.peekStartsWith(";") {
		return Segment{}, p.fail("empty path url segment cannot have parameters")
	}
	if err := p.capture(path); err != nil {
		return Segment{}, err
	}
	decoded, err := Decode(path)
	if err != nil {
		return Segment{}, p.failDecode(err)
	}
	params, err := p.parseMatrixParams()
	if err != nil {
		return Segment{}, err
	}
	return NewSegment(decoded, params), nil
}

func (p *parser) parseMatrixParams() (map[string]string, error) {
	params := map[string]string{}
	for p.consumeOptional(";") {
		if err := p.parseParam(params); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func (p *parser) parseParam(params map[string]string) error {
	key := matchSegment(p.remaining)
	if key == "" {
		return nil
	}
	p.remaining = p.remaining[len(key):]

	value := ""
	if p.consumeOptional("=") {
		if v := matchSegment(p.remaining); v != "" {
			value = v
			p.remaining = p.remaining[len(v):]
		}
	}

	k, err := Decode(key)
	if err != nil {
		return p.failDecode(err)
	}
	v, err := Decode(value)
	if err != nil {
		return p.failDecode(err)
	}
	params[k] = v
	return nil
}

func (p *parser) parseQueryParams() (url.Values, error) {
	params := url.Values{}
	if p.consumeOptional("?") {
		for {
			if err := p.parseQueryParam(params); err != nil {
				return nil, err
			}
			if !p.consumeOptional("&") {
				break
			}
		}
	}
	return params, nil
}

func (p *parser) parseQueryParam(params url.Values) error {
	key := matchQueryKey(p.remaining)
	if key == "" {
		return nil
	}
	p.remaining = p.remaining[len(key):]

	value := ""
	if p.consumeOptional("=") {
		if v := matchQueryValue(p.remaining); v != "" {
			value = v
			p.remaining = p.remaining[len(v):]
		}
	}

	k, err := DecodeQuery(key)
	if err != nil {
		return p.failDecode(err)
	}
	v, err := DecodeQuery(value)
	if err != nil {
		return p.failDecode(err)
	}
	// Repeated keys fold into a multi-valued entry.
	params.Add(k, v)
	return nil
}

func (p *parser) parseFragment() (string, error) {
	if !p.consumeOptional("#") {
		return "", nil
	}
	f, err := Decode(p.remaining)
	if err != nil {
		return "", p.failDecode(err)
	}
	p.remaining = ""
	return f, nil
}

// parseParens parses "(" outlet ("//" outlet)* ")". Outlets without a name
// are primary only when allowPrimary is set.
func (p *parser) parseParens(allowPrimary bool) ([]Child, error) {
	if err := p.capture("("); err != nil {
		return nil, err
	}

	var out []Child
	for !p.consumeOptional(")") && p.remaining != "" {
		path := matchSegment(p.remaining)
		if len(path) >= len(p.remaining) {
			return nil, p.fail("outlet group is not closed")
		}
		switch p.remaining[len(path)] {
		case '/', ')', ';':
		default:
			return nil, p.fail("segment is not escaped or outlet group is not closed")
		}

		var outlet string
		if idx := strings.Index(path, ":"); idx > -1 {
			outlet = path[:idx]
			p.remaining = p.remaining[idx+1:]
		} else if allowPrimary {
			outlet = Primary
		} else {
			return nil, p.fail("named outlet expected")
		}

		children, err := p.parseChildren()
		if err != nil {
			return nil, err
		}
		var group *SegmentGroup
		if len(children) == 1 && children[0].Outlet == Primary {
			group = children[0].Group
		} else {
			group = NewSegmentGroup(nil, children...)
		}
		out = append(out, Child{Outlet: outlet, Group: group})
		p.consumeOptional("//")
	}
	return out, nil
}

// matchSegment returns the longest prefix free of / ( ) ? ; = #
func matchSegment(s string) string {
	return matchUntil(s, "/()?;=#")
}

// matchQueryKey returns the longest prefix free of = ? & #
func matchQueryKey(s string) string {
	return matchUntil(s, "=?&#")
}

// matchQueryValue returns the longest prefix free of ? & #
func matchQueryValue(s string) string {
	return matchUntil(s, "?&#")
}

func matchUntil(s, stop string) string {
	if i := strings.IndexAny(s, stop); i >= 0 {
		return s[:i]
	}
	return s
}
