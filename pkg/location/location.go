// Package location provides the history provider the router reads the
// current URL from and writes committed URLs to.
//
// The router only depends on the Location interface. Memory is a complete
// in-process implementation with back/forward history, used by servers,
// command line tools and tests.
package location

import (
	"sort"
	"strings"
	"sync"
)

// Source says what triggered a navigation.
type Source string

const (
	// Imperative navigations come from application code.
	Imperative Source = "imperative"
	// PopState navigations come from moving through history.
	PopState Source = "popstate"
	// HashChange navigations come from a fragment change.
	HashChange Source = "hashchange"
)

// Change is delivered to subscribers when the URL changes outside the
// router's control.
type Change struct {
	URL    string
	Source Source
}

// Location is the history provider contract.
type Location interface {
	// Path returns the current URL.
	Path() string
	// Go pushes a new history entry.
	Go(url string)
	// ReplaceState replaces the current history entry.
	ReplaceState(url string)
	// Subscribe registers fn for external URL changes and returns a function
	// that unsubscribes.
	Subscribe(fn func(Change)) func()
}

// Memory is an in-memory Location with a history stack.
type Memory struct {
	mu      sync.Mutex
	entries []string
	index   int
	nextID  int
	subs    map[int]func(Change)
}

// NewMemory creates a history whose only entry is initial. An empty initial
// URL means "/".
func NewMemory(initial string) *Memory {
	if initial == "" {
		initial = "/"
	}
	return &Memory{
		entries: []string{initial},
		subs:    make(map[int]func(Change)),
	}
}

// Path returns the current entry.
func (m *Memory) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// IsCurrentPathEqualTo reports whether the current entry is url.
func (m *Memory) IsCurrentPathEqualTo(url string) bool {
	return m.Path() == url
}

// Go pushes url, dropping any forward entries.
func (m *Memory) Go(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], url)
	m.index = len(m.entries) - 1
}

// ReplaceState overwrites the current entry.
func (m *Memory) ReplaceState(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = url
}

// Back moves one entry back and notifies subscribers with a popstate change.
// It reports false at the start of history.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves one entry forward and notifies subscribers with a popstate
// change. It reports false at the end of history.
func (m *Memory) Forward() bool {
	return m.move(1)
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = next
	url := m.entries[next]
	m.mu.Unlock()

	m.notify(Change{URL: url, Source: PopState})
	return true
}

// SetHash replaces the fragment of the current entry and notifies
// subscribers with a hashchange, the way a browser does when the user edits
// the fragment.
func (m *Memory) SetHash(fragment string) {
	m.mu.Lock()
	cur := m.entries[m.index]
	if i := strings.IndexByte(cur, '#'); i >= 0 {
		cur = cur[:i]
	}
	if fragment != "" {
		cur += "#" + fragment
	}
	m.entries = append(m.entries[:m.index+1], cur)
	m.index = len(m.entries) - 1
	m.mu.Unlock()

	m.notify(Change{URL: cur, Source: HashChange})
}

// Emit delivers an arbitrary change to subscribers without touching the
// history. Hosts bridging a real browser history use it to forward events.
func (m *Memory) Emit(c Change) {
	m.notify(c)
}

// History returns a copy of all entries and the index of the current one.
func (m *Memory) History() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out, m.index
}

// Subscribe registers fn for changes.
func (m *Memory) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (m *Memory) notify(c Change) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
