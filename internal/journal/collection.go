package journal

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/mood"
)

// EntryRepository is the part of Repository the Manager needs.
type EntryRepository interface {
	Create(ctx context.Context, draft model.Draft) (model.JournalEntry, error)
	List(ctx context.Context, userID string) ([]model.JournalEntry, error)
	Delete(ctx context.Context, id string) error
}

// State is a snapshot of the collection view.
type State struct {
	Error     string
	Entries   []model.JournalEntry
	Filter    model.EntryFilter
	IsLoading bool
}

// Manager owns the current user's entries in memory. All changes go through
// its methods; readers get copies.
//
// Fetches are numbered in the order they start. A response is applied only if
// its number is higher than that of the last applied response, so a slow,
// older fetch can never overwrite a newer result. Creates and deletes that
// complete while a fetch is in flight are logged and replayed onto its
// response, since the store may have answered before they landed.
type Manager struct {
	repo      EntryRepository
	identity  auth.Identity
	logger    *slog.Logger
	subs      []func(State)
	entries   []model.JournalEntry
	mutations []mutation
	errMsg    string
	filter    model.EntryFilter
	nextSeq   uint64
	applied   uint64
	mutSeq    uint64
	inflight  int
	mu        sync.Mutex
}

// mutation is a local create or delete recorded while fetches are running.
type mutation struct {
	created   *model.JournalEntry
	deletedID string
	seq       uint64
}

// NewManager creates an empty Manager.
func NewManager(repo EntryRepository, identity auth.Identity, logger *slog.Logger) *Manager {
	return &Manager{
		repo:     repo,
		identity: identity,
		logger:   common.OrDefault(logger),
	}
}

// State returns a snapshot of the view state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	return State{
		Entries:   append([]model.JournalEntry(nil), m.entries...),
		IsLoading: m.inflight > 0,
		Error:     m.errMsg,
		Filter:    m.filter,
	}
}

// Subscribe registers fn to receive the new state after every change. fn is
// called without the Manager's lock held.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// changed must be called with the lock released.
func (m *Manager) changed() {
	m.mu.Lock()
	state := m.snapshotLocked()
	subs := slices.Clone(m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Fetch reloads the current user's entries. On failure the previous entries
// stay and State().Error carries a message for the user. Fetch returns the
// repository error, or nil if a newer fetch made this one irrelevant.
func (m *Manager) Fetch(ctx context.Context) error {
	m.mu.Lock()
	m.nextSeq++
	seq := m.nextSeq
	since := m.mutSeq
	m.inflight++
	m.mu.Unlock()
	m.changed()

	userID := ""
	if m.identity != nil {
		userID = m.identity.CurrentUserID()
	}
	entries, err := m.repo.List(ctx, userID)

	m.mu.Lock()
	m.inflight--
	stale := seq <= m.applied
	if !stale {
		m.applied = seq
		if err != nil {
			m.errMsg = Message(err)
		} else {
			entries = m.replayLocked(entries, since)
			sortNewestFirst(entries)
			m.entries = entries
			m.errMsg = ""
		}
	}
	if m.inflight == 0 {
		m.mutations = nil
	}
	m.mu.Unlock()
	m.changed()

	if stale {
		m.logger.Debug("discarding stale fetch result", "seq", seq)
		return nil
	}
	if err != nil {
		common.LogError(err, "failed to fetch entries", common.Fields{"user_id": userID})
	}
	return err
}

// Create saves a new entry and puts it at the front of the collection. A
// failure leaves the collection alone and is only returned to the caller.
func (m *Manager) Create(ctx context.Context, draft model.Draft) (model.JournalEntry, error) {
	entry, err := m.repo.Create(ctx, draft)
	if err != nil {
		return model.JournalEntry{}, err
	}

	m.mu.Lock()
	m.recordLocked(mutation{created: &entry})
	entries := make([]model.JournalEntry, 0, len(m.entries)+1)
	entries = append(entries, entry)
	entries = append(entries, m.entries...)
	m.entries = entries
	m.mu.Unlock()
	m.changed()

	return entry, nil
}

// Delete removes an entry from the store and, once that succeeds, from the
// collection. Deleting an id that is not present succeeds.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	m.recordLocked(mutation{deletedID: id})
	entries := make([]model.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.ID != id {
			entries = append(entries, e)
		}
	}
	removed := len(entries) != len(m.entries)
	m.entries = entries
	m.mu.Unlock()

	if removed {
		m.changed()
	}
	return nil
}

func (m *Manager) recordLocked(mut mutation) {
	m.mutSeq++
	if m.inflight == 0 {
		return
	}
	mut.seq = m.mutSeq
	m.mutations = append(m.mutations, mut)
}

// replayLocked applies the mutations recorded after since to a fetched list.
func (m *Manager) replayLocked(entries []model.JournalEntry, since uint64) []model.JournalEntry {
	for _, mut := range m.mutations {
		if mut.seq <= since {
			continue
		}
		if mut.created != nil {
			if !slices.ContainsFunc(entries, func(e model.JournalEntry) bool { return e.ID == mut.created.ID }) {
				entries = append([]model.JournalEntry{*mut.created}, entries...)
			}
			continue
		}
		entries = slices.DeleteFunc(entries, func(e model.JournalEntry) bool { return e.ID == mut.deletedID })
	}
	return entries
}

// UpdateFilter replaces the filter. It never touches the store.
func (m *Manager) UpdateFilter(f model.EntryFilter) {
	m.mu.Lock()
	m.filter = f
	m.mu.Unlock()
	m.changed()
}

// ClearFilter removes the filter.
func (m *Manager) ClearFilter() {
	m.UpdateFilter(model.EntryFilter{})
}

// FilteredEntries returns the entries that pass the current filter.
func (m *Manager) FilteredEntries() []model.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterEntries(m.entries, m.filter)
}

// Filtered applies the state's own filter to its entries.
func (s State) Filtered() []model.JournalEntry {
	return filterEntries(s.Entries, s.Filter)
}

func filterEntries(entries []model.JournalEntry, f model.EntryFilter) []model.JournalEntry {
	out := make([]model.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if !f.Active() || mood.Matches(e.Mood, f.Mood) {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops all entries and the error, and makes any fetch still in flight
// stale. Used on sign-out.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.mutations = nil
	m.errMsg = ""
	m.applied = m.nextSeq
	m.mu.Unlock()
	m.changed()
}

// BindAuth keeps the collection in step with provider: it fetches when a user
// signs in and clears when they sign out or switch accounts. Fetches run in
// the background under ctx. The returned function stops following provider.
func (m *Manager) BindAuth(ctx context.Context, provider auth.Provider) func() {
	var (
		mu      sync.Mutex
		current string
	)
	if session, ok := provider.Session(); ok {
		current = session.UserID
	}

	return provider.Subscribe(func(session auth.Session, ok bool) {
		mu.Lock()
		previous := current
		if ok {
			current = session.UserID
		} else {
			current = ""
		}
		next := current
		mu.Unlock()

		if previous != "" && previous != next {
			m.Clear()
		}
		if next != "" && next != previous {
			go func() { _ = m.Fetch(ctx) }()
		}
	})
}

func sortNewestFirst(entries []model.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
