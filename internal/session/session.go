// Package session holds transient per-owner interaction state: the current
// list page, a pending search-mode selection, a draft note under
// construction, and the last search results. Nothing here survives a
// restart.
package session

import (
	"sync"

	"notesbot/internal/note"
)

// Mode tags what the next plain-text message from the owner means.
type Mode int

const (
	ModeIdle Mode = iota
	// ModeAwaitingSearch: the next message is a search term.
	ModeAwaitingSearch
	// ModeDrafting: the owner is building a note across several messages.
	ModeDrafting
)

// SearchMode selects between tag-overlap and substring search.
type SearchMode int

const (
	SearchTags SearchMode = iota
	SearchContent
)

// DraftInput tags what the next message contributes to the draft.
type DraftInput int

const (
	DraftContent DraftInput = iota
	DraftTitle
	DraftTags
)

// Draft accumulates a multi-step note until save or cancel.
type Draft struct {
	Content string
	Title   string
	Tags    []string
	Next    DraftInput
}

// Search is the last executed query, kept for refine and re-sort.
type Search struct {
	Mode SearchMode
	Term string
}

// Session is one owner's interaction state. Updates for one owner may be
// dispatched concurrently, so callers hold the session's lock for the
// duration of handling an event.
type Session struct {
	mu sync.Mutex

	Page int

	mode       Mode
	searchMode SearchMode
	draft      *Draft

	lastSearch *Search
	results    []note.Note
}

// Lock guards all session state, including exported fields and any Draft
// pointer handed out, across one handled event.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// StartSearch arms the session: the next message is consumed as a query.
func (s *Session) StartSearch(m SearchMode) {
	s.mode = ModeAwaitingSearch
	s.searchMode = m
	s.draft = nil
}

// ConsumeSearch disarms a pending search and returns its mode. The session
// returns to idle whether or not the query later succeeds.
func (s *Session) ConsumeSearch() (SearchMode, bool) {
	if s.mode != ModeAwaitingSearch {
		return 0, false
	}
	s.mode = ModeIdle
	return s.searchMode, true
}

// StartDraft begins the multi-step note flow with an empty accumulator.
func (s *Session) StartDraft() {
	s.mode = ModeDrafting
	s.draft = &Draft{Next: DraftContent}
}

// Draft returns the accumulator while drafting.
func (s *Session) Draft() (*Draft, bool) {
	if s.mode != ModeDrafting {
		return nil, false
	}
	return s.draft, true
}

// EndDraft leaves the drafting flow, on save and on cancel alike.
func (s *Session) EndDraft() {
	s.mode = ModeIdle
	s.draft = nil
}

// Idle reports whether no multi-step flow is active.
func (s *Session) Idle() bool { return s.mode == ModeIdle }

// Reset drops any pending flow and returns to idle.
func (s *Session) Reset() {
	s.mode = ModeIdle
	s.draft = nil
}

// SetResults records an executed search for later refine and re-sort.
func (s *Session) SetResults(q Search, notes []note.Note) {
	s.lastSearch = &q
	s.results = notes
}

// Results returns the last search's result set.
func (s *Session) Results() ([]note.Note, bool) {
	if s.lastSearch == nil {
		return nil, false
	}
	return s.results, true
}

// LastSearch returns the last executed query.
func (s *Session) LastSearch() (Search, bool) {
	if s.lastSearch == nil {
		return Search{}, false
	}
	return *s.lastSearch, true
}

// Store maps owners to sessions. The map itself is guarded here; each
// session carries its own lock for the handling of its events.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the owner's session, creating it on first use.
func (st *Store) Get(owner int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[owner]
	if !ok {
		s = &Session{Page: 1}
		st.sessions[owner] = s
	}
	return s
}
