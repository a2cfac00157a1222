package repomanager

import (
	"context"
	"maps"
	"slices"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

// memSnapshot is a deep copy of the store contents.
type memSnapshot struct {
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	admins   map[string]*models.AdminProfile
	assoc    map[[2]string]int64
	files    map[string]*models.File
	comments map[string]*models.Comment
	history  []*models.CommentHistoryEntry
	seq      map[string]int64
	next     int64
}

func cloneMap[V any](m map[string]*V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

// snapshotLocked requires s.mu. History entries are never modified in place,
// so copying the slice is enough.
func (s *memStore) snapshotLocked() *memSnapshot {
	return &memSnapshot{
		users:    cloneMap(s.users),
		tokens:   cloneMap(s.tokens),
		admins:   cloneMap(s.admins),
		assoc:    maps.Clone(s.assoc),
		files:    cloneMap(s.files),
		comments: cloneMap(s.comments),
		history:  slices.Clone(s.history),
		seq:      maps.Clone(s.seq),
		next:     s.next,
	}
}

func (s *memStore) restore(snap *memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tokens, s.admins = snap.users, snap.tokens, snap.admins
	s.assoc, s.files, s.comments = snap.assoc, snap.files, snap.comments
	s.history, s.seq, s.next = snap.history, snap.seq, snap.next
}

// write must be called before every mutation; the returned func releases
// what it acquired. Writes are serialized on txMu. Inside dbx.WithTx the
// first write takes txMu for the rest of the transaction and snapshots the
// store, and a rollback restores that snapshot, so a mutation and its audit
// row persist together or not at all.
func (s *memStore) write(ctx context.Context) func() {
	scope := dbx.TxScopeFrom(ctx)
	if scope == nil {
		s.txMu.Lock()
		return s.txMu.Unlock
	}
	if scope.Mark(s) {
		s.txMu.Lock()
		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		scope.OnRollback(func() { s.restore(snap) })
		scope.OnDone(s.txMu.Unlock)
	}
	return func() {}
}
