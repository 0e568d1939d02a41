package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and DSN-less development runs.
type InMemory struct {
	mu           sync.RWMutex
	classicSeq   int64
	noteSeq      int64
	translateSeq int64
	classics     map[int64]*Classic
	notes        map[int64]*Note
	translations map[int64]*Translation
	likes        map[likeKey]struct{}
	favorites    map[likeKey]struct{}
}

// likeKey identifies a per-user mark (like or favorite) on a classic.
type likeKey struct {
	userID    int64
	classicID int64
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty catalog.
func NewInMemory() *InMemory {
	return &InMemory{
		classics:     make(map[int64]*Classic),
		notes:        make(map[int64]*Note),
		translations: make(map[int64]*Translation),
		likes:        make(map[likeKey]struct{}),
		favorites:    make(map[likeKey]struct{}),
	}
}

func (s *InMemory) ListClassics(ctx context.Context, q ClassicQuery) ([]Classic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Classic
	for _, c := range s.classics {
		if q.Search != "" && !matchesSearch(c, q.Search) {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, q.Limit, q.Offset), nil
}

func matchesSearch(c *Classic, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(c.Title), term) ||
		strings.Contains(strings.ToLower(c.Author), term)
}

func (s *InMemory) GetClassic(ctx context.Context, id int64) (Classic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classics[id]
	if !ok {
		return Classic{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) CreateClassic(ctx context.Context, c *Classic) error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classicSeq++
	c.ID = s.classicSeq
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.classics[c.ID] = &cp
	return nil
}

func (s *InMemory) ListNotes(ctx context.Context, q NoteQuery) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Note
	for _, n := range s.notes {
		if q.ClassicID != 0 && n.ClassicID != q.ClassicID {
			continue
		}
		all = append(all, *n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, q.Limit, q.Offset), nil
}

func (s *InMemory) GetNote(ctx context.Context, id int64) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return *n, nil
}

func (s *InMemory) CreateNote(ctx context.Context, n *Note) error {
	if strings.TrimSpace(n.Content) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[n.ClassicID]; !ok {
		return ErrNotFound
	}
	s.noteSeq++
	n.ID = s.noteSeq
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *InMemory) UpdateNote(ctx context.Context, id int64, content string) (Note, error) {
	if strings.TrimSpace(content) == "" {
		return Note{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	return *n, nil
}

func (s *InMemory) DeleteNote(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

func (s *InMemory) ListTranslations(ctx context.Context, q TranslationQuery) ([]Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Translation
	for _, tr := range s.translations {
		if q.ClassicID != 0 && tr.ClassicID != q.ClassicID {
			continue
		}
		if q.Language != "" && !strings.EqualFold(tr.Language, q.Language) {
			continue
		}
		all = append(all, *tr)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, q.Limit, q.Offset), nil
}

func (s *InMemory) GetTranslation(ctx context.Context, id int64) (Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.translations[id]
	if !ok {
		return Translation{}, ErrNotFound
	}
	return *tr, nil
}

func (s *InMemory) CreateTranslation(ctx context.Context, tr *Translation) error {
	if strings.TrimSpace(tr.Content) == "" || strings.TrimSpace(tr.Language) == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[tr.ClassicID]; !ok {
		return ErrNotFound
	}
	s.translateSeq++
	tr.ID = s.translateSeq
	now := time.Now().UTC()
	tr.CreatedAt = now
	tr.UpdatedAt = now
	cp := *tr
	s.translations[tr.ID] = &cp
	return nil
}

func (s *InMemory) UpdateTranslation(ctx context.Context, id int64, content string) (Translation, error) {
	if strings.TrimSpace(content) == "" {
		return Translation{}, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.translations[id]
	if !ok {
		return Translation{}, ErrNotFound
	}
	tr.Content = content
	tr.UpdatedAt = time.Now().UTC()
	return *tr, nil
}

func (s *InMemory) DeleteTranslation(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.translations[id]; !ok {
		return ErrNotFound
	}
	delete(s.translations, id)
	return nil
}

func (s *InMemory) Like(ctx context.Context, userID, classicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[classicID]; !ok {
		return ErrNotFound
	}
	s.likes[likeKey{userID, classicID}] = struct{}{}
	return nil
}

func (s *InMemory) Unlike(ctx context.Context, userID, classicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[classicID]; !ok {
		return ErrNotFound
	}
	delete(s.likes, likeKey{userID, classicID})
	return nil
}

func (s *InMemory) Liked(ctx context.Context, userID, classicID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{userID, classicID}]
	return ok, nil
}

func (s *InMemory) Favorite(ctx context.Context, userID, classicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[classicID]; !ok {
		return ErrNotFound
	}
	s.favorites[likeKey{userID, classicID}] = struct{}{}
	return nil
}

func (s *InMemory) Unfavorite(ctx context.Context, userID, classicID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classics[classicID]; !ok {
		return ErrNotFound
	}
	delete(s.favorites, likeKey{userID, classicID})
	return nil
}

func (s *InMemory) Favorited(ctx context.Context, userID, classicID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[likeKey{userID, classicID}]
	return ok, nil
}

func (s *InMemory) LikeCount(ctx context.Context, classicID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for k := range s.likes {
		if k.classicID == classicID {
			count++
		}
	}
	return count, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
