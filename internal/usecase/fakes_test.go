package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/sentiment"
	"NewsAlerter/internal/store"
)

type memBlob struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlob() *memBlob {
	return &memBlob{data: map[string][]byte{}}
}

func (m *memBlob) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memBlob) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memBlob) Close() error { return nil }

type stubSource struct {
	mu    sync.Mutex
	items []ports.NewsItem
	err   error
	calls int
	// block, when set, is waited on before returning.
	block chan struct{}
}

func (s *stubSource) FetchLatest(context.Context) ([]ports.NewsItem, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]ports.NewsItem(nil), s.items...), nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// keywordScorer scores by marker words so tests control categories.
type keywordScorer struct{}

func (keywordScorer) Score(_ context.Context, text string) (float64, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "great"):
		return 0.8, nil
	case strings.Contains(lower, "awful"):
		return -0.7, nil
	default:
		return 0, nil
	}
}

type sentMessage struct {
	recipient int64
	text      string
}

type recordingSink struct {
	mu    sync.Mutex
	sent  []sentMessage
	fails map[int64]bool
}

func (s *recordingSink) Send(_ context.Context, id int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails[id] {
		return errors.New("chat not found")
	}
	s.sent = append(s.sent, sentMessage{recipient: id, text: text})
	return nil
}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type stubPrice struct {
	quote *domain.Quote
	err   error
	calls int
}

func (p *stubPrice) Quote(context.Context) (*domain.Quote, error) {
	p.calls++
	return p.quote, p.err
}

func item(url, title, summary string) ports.NewsItem {
	return ports.NewsItem{URL: url, Title: title, Summary: summary, Source: "Reuters", TimePublished: "20250301T143000"}
}

func newTestFetcher(src ports.NewsSource, seen *store.ArticleStore) *NewsFetcher {
	return NewNewsFetcher(FetcherDeps{
		Source:     src,
		Classifier: sentiment.NewClassifier(keywordScorer{}, nil),
		Seen:       seen,
		Keyword:    "trump",
	})
}
