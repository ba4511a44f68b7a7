// Package editor implements the repository list form: a per-session row
// model that survives add/remove rebuilds and is only persisted on submit.
//
// Rows are keyed by an id issued at creation time. Ids are never reused and
// removed rows stay in the model as inactive, so removing one row never
// shifts the values of another.
package editor

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zulandar/hookyard/internal/models"
)

// Row is one repository row in an editing session.
type Row struct {
	ID     int
	Active bool

	entry    models.RepositoryEntry
	captured bool
}

// Session is the transient row model of one in-progress form.
type Session struct {
	ID string

	mu      sync.Mutex
	seed    models.RepositoryList // copy of the list the session was built from
	rows    []*Row                // creation order
	nextID  int
	touched time.Time
}

// NewSession seeds a session with one active row per persisted entry.
// Row ids 0..n-1 line up with the positions of persisted at this moment;
// later changes to the stored list do not affect the session.
func NewSession(id string, persisted models.RepositoryList) *Session {
	s := &Session{
		ID:      id,
		seed:    append(models.RepositoryList(nil), persisted...),
		touched: time.Now(),
	}
	for range persisted {
		s.rows = append(s.rows, &Row{ID: s.nextID, Active: true})
		s.nextID++
	}
	return s
}

// Add appends a new active row and returns its id.
func (s *Session) Add() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.rows = append(s.rows, &Row{ID: id, Active: true})
	return id
}

// Remove marks the row inactive. Removing an inactive row is a no-op.
func (s *Session) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.row(id)
	if r == nil {
		return fmt.Errorf("editor: unknown row %d", id)
	}
	r.Active = false
	return nil
}

// Capture records posted field values so the next rebuild shows them.
// Values for inactive or unknown rows are ignored. A blank token keeps the
// row's previously known token.
func (s *Session) Capture(values map[int]models.RepositoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range values {
		r := s.row(id)
		if r == nil || !r.Active {
			continue
		}
		if v.Token == "" {
			v.Token = s.prefill(r).Token
		}
		r.entry = v
		r.captured = true
	}
}

// ActiveIDs returns the ids of active rows in creation order.
func (s *Session) ActiveIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for _, r := range s.rows {
		if r.Active {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// NextID returns the id the next added row will receive.
func (s *Session) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Render builds the form view for the active rows. The dispatch options
// list current, the stored list triggers resolve against.
func (s *Session) Render(current models.RepositoryList) Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := Form{BuildID: s.ID, Options: Options(current)}
	for _, r := range s.rows {
		if !r.Active {
			continue
		}
		e := s.prefill(r)
		f.Groups = append(f.Groups, Group{
			RowID:     r.ID,
			Title:     fmt.Sprintf("Repository %d", len(f.Groups)+1),
			Owner:     e.Owner,
			Repo:      e.Repo,
			EventType: e.EventType,
			HasToken:  e.Token != "",
		})
	}
	return f
}

// Submit builds the list to persist from the active rows in creation
// order. Posted values are taken verbatim except that a blank token keeps
// the row's previously known token. Active rows missing from values
// contribute their rendered pre-fill.
func (s *Session) Submit(values map[int]models.RepositoryEntry) models.RepositoryList {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := models.RepositoryList{}
	for _, r := range s.rows {
		if !r.Active {
			continue
		}
		prev := s.prefill(r)
		v, ok := values[r.ID]
		if !ok {
			list = append(list, prev)
			continue
		}
		if v.Token == "" {
			v.Token = prev.Token
		}
		list = append(list, v)
	}
	return list
}

// prefill returns the values shown for r: captured input, else the seed
// entry at the row id, else defaults. Caller holds s.mu.
func (s *Session) prefill(r *Row) models.RepositoryEntry {
	if r.captured {
		return r.entry
	}
	if r.ID < len(s.seed) {
		return s.seed[r.ID]
	}
	return models.RepositoryEntry{EventType: models.DefaultEventType}
}

// row returns the row with id, or nil. Caller holds s.mu.
func (s *Session) row(id int) *Row {
	for _, r := range s.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Form is the rendered repository form.
type Form struct {
	BuildID string
	Groups  []Group
	Options []Option
}

// Group is one editable repository row. The token is write-only: only its
// presence is exposed.
type Group struct {
	RowID     int
	Title     string
	Owner     string
	Repo      string
	EventType string
	HasToken  bool
}

// Option is one dispatch target in the selection dropdown.
type Option struct {
	Value string // list position
	Label string // owner/repo
}

// Options lists the persisted repositories as dispatch targets, by position.
func Options(list models.RepositoryList) []Option {
	opts := make([]Option, len(list))
	for i, label := range list.Labels() {
		opts[i] = Option{Value: strconv.Itoa(i), Label: label}
	}
	return opts
}
