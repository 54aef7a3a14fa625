package query

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Navigator rewrites the address bar.
type Navigator interface {
	Navigate(address string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(address string)

func (f NavigatorFunc) Navigate(address string) { f(address) }

// Listener receives the explicit "query changed" event.
type Listener interface {
	QueryChanged(ctx context.Context, q SearchQuery)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, q SearchQuery)

func (f ListenerFunc) QueryChanged(ctx context.Context, q SearchQuery) { f(ctx, q) }

// Synchronizer owns the committed SearchQuery and the uncommitted search
// drafts. Draft edits never emit; Submit, GoToPage and address changes
// that alter the parsed query emit exactly one QueryChanged.
//
// Navigator and Listener are called without the lock held, so either may
// call back into the Synchronizer.
type Synchronizer struct {
	nav      Navigator
	listener Listener

	mu      sync.Mutex
	current SearchQuery
	text    string
	tags    []string
}

// NewSynchronizer starts at the root address.
func NewSynchronizer(nav Navigator, listener Listener) *Synchronizer {
	return &Synchronizer{nav: nav, listener: listener, current: SearchQuery{Page: 1}}
}

// Init seeds the committed query and drafts from address without emitting.
func (s *Synchronizer) Init(address string) SearchQuery {
	q := Parse(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(q)
	return cloneQuery(q)
}

// Query returns the committed query.
func (s *Synchronizer) Query() SearchQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneQuery(s.current)
}

// Draft returns the uncommitted text and tags.
func (s *Synchronizer) Draft() (text string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, slices.Clone(s.tags)
}

// ShowPagination is false while a filter is committed; search results are
// not paginated.
func (s *Synchronizer) ShowPagination() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.current.Filtered()
}

// UpdateSearchText replaces the draft text.
func (s *Synchronizer) UpdateSearchText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// AddTag appends a non-blank tag to the draft. Duplicates are kept.
func (s *Synchronizer) AddTag(tag string) {
	if strings.TrimSpace(tag) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = append(s.tags, tag)
}

// RemoveTag drops every draft tag equal to tag.
func (s *Synchronizer) RemoveTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = slices.DeleteFunc(s.tags, func(t string) bool { return t == tag })
}

// KeyPress submits when key is the commit key ("Enter" or keycode 13).
func (s *Synchronizer) KeyPress(ctx context.Context, key string) bool {
	if key != "Enter" && key != "13" {
		return false
	}
	s.Submit(ctx)
	return true
}

// Submit commits the drafts. With text or tags it navigates to the search
// address, otherwise to the root. It always emits once, even when the
// committed query is unchanged, so a re-submit re-fetches.
func (s *Synchronizer) Submit(ctx context.Context) SearchQuery {
	s.mu.Lock()
	text := strings.TrimSpace(s.text)
	address := RootPath
	if text != "" || len(s.tags) > 0 {
		address = SearchAddress(text, s.tags)
	}
	q := Parse(address)
	s.current = cloneQuery(q)
	s.mu.Unlock()

	s.emit(ctx, address, q)
	return q
}

// GoToPage moves the unfiltered feed to page n. It is ignored while a
// filter is committed or when n is not a valid page.
func (s *Synchronizer) GoToPage(ctx context.Context, n int) bool {
	if n < 1 {
		return false
	}
	s.mu.Lock()
	if s.current.Filtered() {
		s.mu.Unlock()
		return false
	}
	q := SearchQuery{Page: n}
	s.current = q
	s.mu.Unlock()

	s.emit(ctx, PageAddress(n), q)
	return true
}

// Sync handles an address changed from outside (history navigation, a
// pasted link). It emits only when the parsed query differs from the
// committed one and reports whether it did.
func (s *Synchronizer) Sync(ctx context.Context, address string) bool {
	q := Parse(address)
	s.mu.Lock()
	if q.Equal(s.current) {
		s.mu.Unlock()
		return false
	}
	s.commitLocked(q)
	s.mu.Unlock()

	log.Debug().Str("address", address).Msg("query changed from address")
	if s.listener != nil {
		s.listener.QueryChanged(ctx, cloneQuery(q))
	}
	return true
}

func (s *Synchronizer) commitLocked(q SearchQuery) {
	s.current = cloneQuery(q)
	s.text = q.Text
	s.tags = slices.Clone(q.Tags)
}

func (s *Synchronizer) emit(ctx context.Context, address string, q SearchQuery) {
	log.Debug().Str("address", address).Str("text", q.Text).Strs("tags", q.Tags).Int("page", q.Page).Msg("query submitted")
	if s.nav != nil {
		s.nav.Navigate(address)
	}
	if s.listener != nil {
		s.listener.QueryChanged(ctx, cloneQuery(q))
	}
}

func cloneQuery(q SearchQuery) SearchQuery {
	q.Tags = slices.Clone(q.Tags)
	return q
}
