package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-devfolio-api/internal/api"
	"github.com/FACorreiaa/go-devfolio-api/internal/types"
)

var _ Store = (*MemoryStore)(nil)

type memoryRecord struct {
	user types.UserAuth
	doc  types.ProfileDocument
}

// MemoryStore is the non-persistent credential store backend. Records
// live for the process lifetime only. The existence check and the insert
// happen under one write lock, so concurrent signups for the same email
// cannot both succeed.
type MemoryStore struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	byEmail map[string]*memoryRecord
	byID    map[uuid.UUID]*memoryRecord
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		logger:  logger,
		byEmail: make(map[string]*memoryRecord),
		byID:    make(map[uuid.UUID]*memoryRecord),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*types.UserAuth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byEmail[email]
	if !ok {
		return nil, api.ErrNotFound
	}
	u := rec.user
	return &u, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user types.UserAuth, doc *types.ProfileDocument) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return uuid.Nil, api.ErrConflict
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	rec := &memoryRecord{user: user, doc: cloneDocument(doc)}
	s.byEmail[user.Email] = rec
	s.byID[user.ID] = rec

	s.logger.InfoContext(ctx, "User created", slog.String("userID", user.ID.String()))
	return user.ID, nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID uuid.UUID) (*types.ProfileDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[userID]
	if !ok {
		return nil, api.ErrNotFound
	}
	doc := cloneDocument(&rec.doc)
	return &doc, nil
}

func (s *MemoryStore) Empty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail) == 0, nil
}

// cloneDocument deep-copies a profile document so callers never alias
// the store's internal slices.
func cloneDocument(doc *types.ProfileDocument) types.ProfileDocument {
	out := *doc

	out.Skills = make([]types.SkillGroup, len(doc.Skills))
	for i, g := range doc.Skills {
		out.Skills[i] = types.SkillGroup{Category: g.Category, Items: append([]string{}, g.Items...)}
	}

	out.Experience = make([]types.Experience, len(doc.Experience))
	for i, e := range doc.Experience {
		e.Highlights = append([]string{}, e.Highlights...)
		out.Experience[i] = e
	}

	out.Projects = make([]types.Project, len(doc.Projects))
	for i, p := range doc.Projects {
		p.TechStack = append([]string{}, p.TechStack...)
		out.Projects[i] = p
	}

	return out
}
