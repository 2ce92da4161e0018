package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/metrics"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

type cycleFixture struct {
	source  *stubSource
	seen    *store.ArticleStore
	prefs   *store.PreferenceStore
	sink    *recordingSink
	price   *stubPrice
	metrics *metrics.Metrics
	cycle   *AlertCycle
}

func newCycleFixture(items ...ports.NewsItem) *cycleFixture {
	fx := &cycleFixture{
		source:  &stubSource{items: items},
		seen:    store.NewArticleStore(newMemBlob(), 50, nil),
		prefs:   store.NewPreferenceStore(newMemBlob(), nil),
		sink:    &recordingSink{},
		price:   &stubPrice{quote: &domain.Quote{Symbol: "VOO", Price: "500.00", Change: "1.00", ChangePercent: "0.20%"}},
		metrics: metrics.New(),
	}
	fx.cycle = NewAlertCycle(CycleDeps{
		Fetcher:    newTestFetcher(fx.source, fx.seen),
		Dispatcher: NewDispatcher(fx.prefs, 3, nil),
		Recipients: fx.prefs,
		Sink:       fx.sink,
		Price:      fx.price,
		Formatter:  Formatter{Topic: "Trump", PriceSymbol: "VOO"},
		Metrics:    fx.metrics,
	})
	return fx
}

func TestCycleWithoutSubscribersSkipsFetch(t *testing.T) {
	t.Parallel()

	fx := newCycleFixture(item("https://n.example/a", "Trump", ""))
	if err := fx.cycle.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fx.source.callCount() != 0 {
		t.Fatalf("expected no upstream call without subscribers")
	}
	if fx.metrics.CyclesSkipped != 1 {
		t.Fatalf("expected skipped cycle to be counted")
	}
}

func TestCycleDeliversOncePerArticle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newCycleFixture(
		item("https://n.example/a", "Trump great day", ""),
		item("https://n.example/b", "Trump awful day", ""),
	)
	fx.prefs.SetSubscribed(ctx, 10, true)
	fx.prefs.SetSubscribed(ctx, 20, true)
	fx.prefs.ToggleCategory(ctx, 20, domain.Positive)

	if err := fx.cycle.Run(ctx, time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msgs := fx.sink.messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(msgs))
	}
	for _, m := range msgs {
		if !strings.HasPrefix(m.text, "🚨 *TRUMP NEWS ALERT*") {
			t.Fatalf("alert header missing: %q", m.text)
		}
		if !strings.Contains(m.text, "Price: $500.00") {
			t.Fatalf("quote missing: %q", m.text)
		}
	}

	if err := fx.cycle.Run(ctx, time.Now()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(fx.sink.messages()) != 3 {
		t.Fatalf("already alerted articles must not be sent again")
	}
	if fx.metrics.AlertsSent != 3 || fx.metrics.DuplicatesSeen != 2 {
		t.Fatalf("unexpected metrics %+v", fx.metrics.GetStats())
	}
}

func TestCycleSkipsQuoteWhenNothingToSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newCycleFixture(item("https://n.example/a", "Trump great day", ""))
	fx.prefs.SetSubscribed(ctx, 10, true)
	fx.prefs.ToggleCategory(ctx, 10, domain.Positive)

	if err := fx.cycle.Run(ctx, time.Now()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fx.price.calls != 0 {
		t.Fatalf("quote fetched although no alert was sent")
	}
	if !fx.seen.Contains("https://n.example/a") {
		t.Fatalf("filtered article must still be recorded as seen")
	}
}

func TestCyclePropagatesUpstreamFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newCycleFixture()
	fx.source.err = errors.New("503 from provider")
	fx.prefs.SetSubscribed(ctx, 10, true)

	err := fx.cycle.Run(ctx, time.Now())
	if err == nil || !strings.Contains(err.Error(), "503 from provider") {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if fx.metrics.Healthy() {
		t.Fatalf("failed cycle must mark metrics unhealthy")
	}
	if len(fx.sink.messages()) != 0 {
		t.Fatalf("nothing should be sent on failure")
	}
}

func TestCycleSkipsOverlappingRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newCycleFixture(item("https://n.example/a", "Trump", ""))
	fx.prefs.SetSubscribed(ctx, 10, true)
	fx.source.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- fx.cycle.Run(ctx, time.Now()) }()

	deadline := time.Now().Add(5 * time.Second)
	for fx.source.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first run never reached the source")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := fx.cycle.Run(ctx, time.Now()); err != nil {
		t.Fatalf("overlapping Run: %v", err)
	}
	if fx.source.callCount() != 1 {
		t.Fatalf("overlapping run must not fetch")
	}

	close(fx.source.block)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(fx.sink.messages()) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(fx.sink.messages()))
	}
}
