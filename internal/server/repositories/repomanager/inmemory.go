package repomanager

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/admins"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/comments"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/history"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/users"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager keeps every table in process memory and mirrors
// the constraints of the PostgreSQL schema (unique keys, cascades, restrict).
// The DBTX argument is ignored; transactions are followed through the
// dbx.TxScope in the context instead, so writes of a unit of work that rolls
// back are undone. Intended for tests and local development.
type InMemoryRepositoryManager struct {
	s *memStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{s: &memStore{
		users:    map[string]*models.User{},
		tokens:   map[string]*models.RefreshToken{},
		admins:   map[string]*models.AdminProfile{},
		assoc:    map[[2]string]int64{},
		files:    map[string]*models.File{},
		comments: map[string]*models.Comment{},
		seq:      map[string]int64{},
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return memUsers{m.s} }

func (m *InMemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memTokens{m.s}
}

func (m *InMemoryRepositoryManager) Admins(dbx.DBTX) admins.Repository     { return memAdmins{m.s} }
func (m *InMemoryRepositoryManager) Files(dbx.DBTX) files.Repository       { return memFiles{m.s} }
func (m *InMemoryRepositoryManager) Comments(dbx.DBTX) comments.Repository { return memComments{m.s} }
func (m *InMemoryRepositoryManager) History(dbx.DBTX) history.Repository   { return memHistory{m.s} }

type memStore struct {
	// txMu serializes writers and is held for a whole transaction.
	txMu     sync.Mutex
	mu       sync.Mutex
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	admins   map[string]*models.AdminProfile
	assoc    map[[2]string]int64
	files    map[string]*models.File
	comments map[string]*models.Comment
	history  []*models.CommentHistoryEntry
	// seq records insertion order, used to break created_at ties.
	seq  map[string]int64
	next int64
}

func (s *memStore) stamp(id string) time.Time {
	s.next++
	s.seq[id] = s.next
	return time.Now().UTC()
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---- users ----

type memUsers struct{ s *memStore }

func cloneUser(u *models.User) *models.User { c := *u; return &c }

func (r memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	u := cloneUser(user)
	u.ID = uuid.NewString()
	u.CreatedAt = r.s.stamp(u.ID)
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = u
	return cloneUser(u), nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] < r.s.seq[out[j].ID] })
	return page(out, skip, limit), nil
}

func (r memUsers) Update(ctx context.Context, user *models.User) (*models.User, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, other := range r.s.users {
		if other.ID != user.ID && strings.EqualFold(other.Email, user.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.Email = user.Email
	u.PasswordHash = user.PasswordHash
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r memUsers) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	for _, f := range r.s.files {
		if f.UploadedByUserID == id {
			return common.ErrorConflict
		}
	}
	for _, a := range r.s.admins {
		if a.UserID == id {
			r.s.deleteAdminLocked(a.ID)
		}
	}
	for k := range r.s.assoc {
		if k[0] == id {
			delete(r.s.assoc, k)
		}
	}
	for cid, c := range r.s.comments {
		if c.UserID == id {
			delete(r.s.comments, cid)
		}
	}
	for t, tok := range r.s.tokens {
		if tok.UserID == id {
			delete(r.s.tokens, t)
		}
	}
	delete(r.s.users, id)
	return nil
}

// ---- refresh tokens ----

type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return common.ErrorConflict
	}
	key := refreshtokens.Digest(token)
	if _, ok := r.s.tokens[key]; ok {
		return common.ErrorAlreadyExists
	}
	now := time.Now().UTC()
	r.s.tokens[key] = &models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, TokenHash: key,
		ExpiresAt: now.Add(validity), CreatedAt: now,
	}
	return nil
}

func (r memTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[refreshtokens.Digest(token)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r memTokens) Delete(ctx context.Context, token string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, refreshtokens.Digest(token))
	return nil
}

func (r memTokens) DeleteByUser(ctx context.Context, userID string) error {
	return r.deleteWhere(ctx, func(t *models.RefreshToken) bool { return t.UserID == userID })
}

func (r memTokens) DeleteExpired(ctx context.Context, userID string, now time.Time) error {
	return r.deleteWhere(ctx, func(t *models.RefreshToken) bool { return t.UserID == userID && t.Expired(now) })
}

func (r memTokens) deleteWhere(ctx context.Context, match func(*models.RefreshToken) bool) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, tok := range r.s.tokens {
		if match(tok) {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

// ---- admins ----

type memAdmins struct{ s *memStore }

func cloneAdmin(a *models.AdminProfile) *models.AdminProfile { c := *a; return &c }

func (s *memStore) deleteAdminLocked(id string) {
	for fid, f := range s.files {
		if f.OwnerAdminID == id {
			s.deleteFileLocked(fid)
		}
	}
	for k := range s.assoc {
		if k[1] == id {
			delete(s.assoc, k)
		}
	}
	delete(s.admins, id)
}

func (r memAdmins) Create(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[admin.UserID]; !ok {
		return nil, common.ErrorConflict
	}
	for _, a := range r.s.admins {
		if a.UserID == admin.UserID {
			return nil, common.ErrorAlreadyExists
		}
	}
	a := cloneAdmin(admin)
	a.ID = uuid.NewString()
	a.CreatedAt = r.s.stamp(a.ID)
	a.UpdatedAt = a.CreatedAt
	r.s.admins[a.ID] = a
	return cloneAdmin(a), nil
}

func (r memAdmins) GetByID(ctx context.Context, id string) (*models.AdminProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAdmin(a), nil
}

func (r memAdmins) GetByUserID(ctx context.Context, userID string) (*models.AdminProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.admins {
		if a.UserID == userID {
			return cloneAdmin(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAdmins) List(ctx context.Context, skip, limit int) ([]*models.AdminProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.AdminProfile, 0, len(r.s.admins))
	for _, a := range r.s.admins {
		out = append(out, cloneAdmin(a))
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] < r.s.seq[out[j].ID] })
	return page(out, skip, limit), nil
}

func (r memAdmins) modify(ctx context.Context, id string, fn func(a *models.AdminProfile) error) (*models.AdminProfile, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()
	return cloneAdmin(a), nil
}

func (r memAdmins) Update(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error) {
	return r.modify(ctx, admin.ID, func(a *models.AdminProfile) error {
		a.Name = admin.Name
		a.DriveFolderID = admin.DriveFolderID
		return nil
	})
}

func (r memAdmins) SetCredentials(ctx context.Context, id, ciphertext, folderID string) (*models.AdminProfile, error) {
	return r.modify(ctx, id, func(a *models.AdminProfile) error {
		a.EncryptedDriveCred = ciphertext
		a.DriveFolderID = folderID
		return nil
	})
}

func (r memAdmins) ClearCredentials(ctx context.Context, id string) error {
	_, err := r.modify(ctx, id, func(a *models.AdminProfile) error {
		if a.EncryptedDriveCred == "" {
			return common.ErrorNotFound
		}
		a.EncryptedDriveCred = ""
		return nil
	})
	return err
}

func (r memAdmins) SetFolders(ctx context.Context, id string, folders models.FolderIDs) (*models.AdminProfile, error) {
	return r.modify(ctx, id, func(a *models.AdminProfile) error {
		a.Folders = folders
		return nil
	})
}

func (r memAdmins) Delete(ctx context.Context, id string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.admins[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteAdminLocked(id)
	return nil
}

func (r memAdmins) Associate(ctx context.Context, userID, adminID string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, uok := r.s.users[userID]
	_, aok := r.s.admins[adminID]
	if !uok || !aok {
		return common.ErrorConflict
	}
	k := [2]string{userID, adminID}
	if _, ok := r.s.assoc[k]; !ok {
		r.s.next++
		r.s.assoc[k] = r.s.next
	}
	return nil
}

func (r memAdmins) Disassociate(ctx context.Context, userID, adminID string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]string{userID, adminID}
	if _, ok := r.s.assoc[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.assoc, k)
	return nil
}

func (r memAdmins) ListByUser(ctx context.Context, userID string) ([]*models.AdminProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type linked struct {
		a   *models.AdminProfile
		seq int64
	}
	var ls []linked
	for k, seq := range r.s.assoc {
		if k[0] == userID {
			if a, ok := r.s.admins[k[1]]; ok {
				ls = append(ls, linked{cloneAdmin(a), seq})
			}
		}
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i].seq < ls[j].seq })
	out := make([]*models.AdminProfile, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.a)
	}
	return out, nil
}

// ---- files ----

type memFiles struct{ s *memStore }

func cloneFile(f *models.File) *models.File { c := *f; return &c }

func (s *memStore) deleteFileLocked(id string) {
	for cid, c := range s.comments {
		if c.FileID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.files, id)
}

func (r memFiles) Create(ctx context.Context, file *models.File) (*models.File, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, aok := r.s.admins[file.OwnerAdminID]
	_, uok := r.s.users[file.UploadedByUserID]
	if !aok || !uok {
		return nil, common.ErrorConflict
	}
	f := cloneFile(file)
	f.ID = uuid.NewString()
	f.CreatedAt = r.s.stamp(f.ID)
	f.UpdatedAt = f.CreatedAt
	r.s.files[f.ID] = f
	return cloneFile(f), nil
}

func (r memFiles) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneFile(f), nil
}

func (r memFiles) List(ctx context.Context, filter models.FileFilter) ([]*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.File{}
	for _, f := range r.s.files {
		if filter.AdminIDs != nil && !slices.Contains(filter.AdminIDs, f.OwnerAdminID) {
			continue
		}
		out = append(out, cloneFile(f))
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] > r.s.seq[out[j].ID] })
	return page(out, filter.Skip, filter.Limit), nil
}

func (r memFiles) Delete(ctx context.Context, id string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteFileLocked(id)
	return nil
}

// ---- comments ----

type memComments struct{ s *memStore }

func cloneComment(c *models.Comment) *models.Comment { cc := *c; return &cc }

func (r memComments) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, fok := r.s.files[comment.FileID]
	_, uok := r.s.users[comment.UserID]
	if !fok || !uok {
		return nil, common.ErrorConflict
	}
	c := cloneComment(comment)
	c.ID = uuid.NewString()
	c.CreatedAt = r.s.stamp(c.ID)
	c.UpdatedAt = c.CreatedAt
	r.s.comments[c.ID] = c
	return cloneComment(c), nil
}

func (r memComments) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneComment(c), nil
}

func (r memComments) GetForUpdate(ctx context.Context, id string) (*models.Comment, error) {
	return r.GetByID(ctx, id)
}

func (r memComments) ListByFile(ctx context.Context, fileID string) ([]*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range r.s.comments {
		if c.FileID == fileID {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.seq[out[i].ID] < r.s.seq[out[j].ID] })
	return out, nil
}

func (r memComments) UpdateText(ctx context.Context, id, text string) (*models.Comment, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.Text = text
	c.UpdatedAt = time.Now().UTC()
	return cloneComment(c), nil
}

func (r memComments) Delete(ctx context.Context, id string) error {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.comments, id)
	return nil
}

// ---- history ----

type memHistory struct{ s *memStore }

func (r memHistory) Append(ctx context.Context, entry *models.CommentHistoryEntry) (*models.CommentHistoryEntry, error) {
	defer r.s.write(ctx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *entry
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	r.s.history = append(r.s.history, &e)
	c := e
	return &c, nil
}

func (r memHistory) ListByComment(ctx context.Context, commentID string) ([]*models.CommentHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.CommentHistoryEntry{}
	for _, e := range r.s.history {
		if e.CommentID == commentID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}
