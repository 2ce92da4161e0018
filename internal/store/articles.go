package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
)

// DefaultSeenCapacity bounds the seen-article log.
const DefaultSeenCapacity = 50

// ArticleStore is the bounded, newest-first log of alerted articles.
type ArticleStore struct {
	mu       sync.RWMutex
	entries  []domain.SeenArticle
	index    map[string]struct{}
	capacity int

	saveMu sync.Mutex
	blob   ports.BlobStore
	logger *slog.Logger
	now    func() time.Time
}

// NewArticleStore builds an empty log. capacity <= 0 uses DefaultSeenCapacity.
func NewArticleStore(blob ports.BlobStore, capacity int, logger *slog.Logger) *ArticleStore {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleStore{
		index:    map[string]struct{}{},
		capacity: capacity,
		blob:     blob,
		logger:   logger,
		now:      time.Now,
	}
}

// Contains reports whether the URL was already alerted.
func (s *ArticleStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Len returns the number of retained entries.
func (s *ArticleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a newest-first copy of the log.
func (s *ArticleStore) Entries() []domain.SeenArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SeenArticle(nil), s.entries...)
}

// RecordAll prepends the articles that are not yet present, preserving batch
// order, truncates to capacity and persists the result. A persistence error is
// returned but the in-memory log keeps the update.
func (s *ArticleStore) RecordAll(ctx context.Context, articles []domain.Article) error {
	s.mu.Lock()
	snapshot, changed := s.recordLocked(articles)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	// saveMu is taken before mu is released so snapshots reach the blob
	// store in the order they were taken.
	s.saveMu.Lock()
	s.mu.Unlock()
	defer s.saveMu.Unlock()
	return s.putLocked(ctx, snapshot)
}

func (s *ArticleStore) recordLocked(articles []domain.Article) ([]byte, bool) {

	now := s.now().UTC()
	fresh := make([]domain.SeenArticle, 0, len(articles))
	batch := map[string]struct{}{}
	for _, art := range articles {
		if art.ID == "" {
			continue
		}
		if _, ok := s.index[art.ID]; ok {
			continue
		}
		if _, ok := batch[art.ID]; ok {
			continue
		}
		batch[art.ID] = struct{}{}
		fresh = append(fresh, domain.SeenArticle{URL: art.ID, Title: art.Title, RecordedAt: now})
	}
	if len(fresh) == 0 {
		return nil, false
	}

	s.replace(append(fresh, s.entries...))

	raw, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Error("marshal seen articles", "error", err)
		return nil, true
	}
	return raw, true
}

// replace installs entries truncated to capacity and rebuilds the index.
// Callers hold mu.
func (s *ArticleStore) replace(entries []domain.SeenArticle) {
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	s.entries = entries
	s.index = make(map[string]struct{}, len(entries))
	for _, e := range entries {
		s.index[e.URL] = struct{}{}
	}
}

// putLocked writes raw under the seen-articles key. Callers hold saveMu.
func (s *ArticleStore) putLocked(ctx context.Context, raw []byte) error {
	if s.blob == nil || raw == nil {
		return nil
	}
	if err := s.blob.Put(ctx, KeySeenArticles, raw); err != nil {
		return fmt.Errorf("save seen articles: %w", err)
	}
	return nil
}

// Load replaces the in-memory log with the persisted one. A missing or
// unreadable blob leaves an empty log.
func (s *ArticleStore) Load(ctx context.Context) {
	entries := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(dedupSeen(entries))
	s.logger.Info("seen articles loaded", "count", len(s.entries))
}

func (s *ArticleStore) read(ctx context.Context) []domain.SeenArticle {
	if s.blob == nil {
		return nil
	}

	raw, err := s.blob.Get(ctx, KeySeenArticles)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("load seen articles", "error", err)
		}
		return nil
	}

	var entries []domain.SeenArticle
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("decode seen articles, starting empty", "error", err)
		return nil
	}
	return entries
}

// Save writes the current log to the blob store.
func (s *ArticleStore) Save(ctx context.Context) error {
	s.mu.RLock()
	raw, err := json.Marshal(s.entries)
	if err != nil {
		s.mu.RUnlock()
		return fmt.Errorf("marshal seen articles: %w", err)
	}
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()
	return s.putLocked(ctx, raw)
}

func dedupSeen(entries []domain.SeenArticle) []domain.SeenArticle {
	seen := map[string]struct{}{}
	out := make([]domain.SeenArticle, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		out = append(out, e)
	}
	return out
}
