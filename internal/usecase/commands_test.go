package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

func newTestCommands(src *stubSource, prefs *store.PreferenceStore) *Commands {
	return NewCommands(CommandsDeps{
		Fetcher:   newTestFetcher(src, nil),
		Prefs:     prefs,
		Price:     &stubPrice{err: errors.New("quota")},
		Formatter: Formatter{Topic: "Trump", PriceSymbol: "VOO"},
	})
}

func TestSubscribeOffersFilters(t *testing.T) {
	t.Parallel()

	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	cmds := newTestCommands(&stubSource{}, prefs)

	reply := cmds.Subscribe(context.Background(), 7)
	cmds.Subscribe(context.Background(), 7)

	if got := prefs.Recipients(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected recipient 7 once, got %v", got)
	}
	if reply.Keyboard[0][0].Data != CallbackShowFilters {
		t.Fatalf("welcome should offer the filter menu: %+v", reply.Keyboard)
	}
	if !strings.Contains(reply.Text, "Trump News Alert Bot") {
		t.Fatalf("unexpected welcome %q", reply.Text)
	}

	cmds.Unsubscribe(context.Background(), 7)
	if got := prefs.Recipients(); len(got) != 0 {
		t.Fatalf("expected no recipients, got %v", got)
	}
	if prefs.Get(7).Subscribed {
		t.Fatalf("preference should be kept unsubscribed")
	}
}

func TestLatestFiltersBySentiment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	prefs.SetSubscribed(ctx, 1, true)
	prefs.ToggleCategory(ctx, 1, domain.Neutral)
	prefs.ToggleCategory(ctx, 1, domain.Negative)

	cmds := newTestCommands(&stubSource{items: []ports.NewsItem{
		item("https://n.example/a", "Trump great day", ""),
		item("https://n.example/b", "Trump awful day", ""),
	}}, prefs)

	replies := cmds.Latest(ctx, 1)
	if len(replies) != 1 || !replies[0].Markdown {
		t.Fatalf("expected one markdown reply, got %+v", replies)
	}
	text := replies[0].Text
	if !strings.Contains(text, "great day") || strings.Contains(text, "awful day") {
		t.Fatalf("filter not applied: %q", text)
	}
	if strings.Contains(text, "NEWS ALERT") {
		t.Fatalf("latest replies carry no alert header: %q", text)
	}
	if !strings.Contains(text, "Unable to fetch VOO data") {
		t.Fatalf("quote failure notice missing: %q", text)
	}
}

func TestLatestReportsWhenNothingMatchesFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	prefs.ToggleCategory(ctx, 1, domain.Neutral)
	prefs.ToggleCategory(ctx, 1, domain.Negative)

	cmds := newTestCommands(&stubSource{items: []ports.NewsItem{
		item("https://n.example/a", "Trump speaks", ""),
		item("https://n.example/b", "Trump awful day", ""),
	}}, prefs)

	replies := cmds.Latest(ctx, 1)
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %+v", replies)
	}
	text := replies[0].Text
	if !strings.HasPrefix(text, "Found 2 articles, but none match your sentiment preferences.") {
		t.Fatalf("unexpected reply %q", text)
	}
	if !strings.Contains(text, "neutral, negative") {
		t.Fatalf("disabled categories not listed: %q", text)
	}
}

func TestLatestWithoutNews(t *testing.T) {
	t.Parallel()

	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	cmds := newTestCommands(&stubSource{err: errors.New("down")}, prefs)

	replies := cmds.Latest(context.Background(), 1)
	if len(replies) != 1 || replies[0].Text != "No recent Trump news found. Try again later." {
		t.Fatalf("unexpected replies %+v", replies)
	}
}

func TestToggleCallbackResetsEmptyFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	cmds := newTestCommands(&stubSource{}, prefs)

	cmds.HandleCallback(ctx, 3, CallbackTogglePositive)
	cmds.HandleCallback(ctx, 3, CallbackToggleNeutral)
	res := cmds.HandleCallback(ctx, 3, CallbackToggleNegative)

	if res.Edit == nil || len(res.Replies) != 1 {
		t.Fatalf("expected an edit and a notice, got %+v", res)
	}
	if !strings.HasPrefix(res.Replies[0].Text, "⚠️ You must select at least one sentiment type.") {
		t.Fatalf("unexpected notice %q", res.Replies[0].Text)
	}
	if got := prefs.Get(3).Sentiments; len(got) != len(domain.AllCategories()) {
		t.Fatalf("filter not reset: %v", got)
	}
	if !strings.Contains(res.Edit.Text, "Negative news: Enabled ✅") {
		t.Fatalf("edit should show the reset filter: %q", res.Edit.Text)
	}
}

func TestSelectAllAndShowFiltersCallbacks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := store.NewPreferenceStore(newMemBlob(), nil)
	cmds := newTestCommands(&stubSource{}, prefs)

	res := cmds.HandleCallback(ctx, 4, CallbackToggleNeutral)
	if res.Edit == nil || !strings.Contains(res.Edit.Text, "Neutral news: Disabled ❌") || len(res.Replies) != 0 {
		t.Fatalf("unexpected toggle result %+v", res)
	}

	cmds.HandleCallback(ctx, 4, CallbackSelectAll)
	if got := prefs.Get(4).Sentiments; len(got) != len(domain.AllCategories()) {
		t.Fatalf("select all left %v", got)
	}

	res = cmds.HandleCallback(ctx, 4, CallbackShowFilters)
	if res.Edit != nil || len(res.Replies) != 1 || len(res.Replies[0].Keyboard) != 2 {
		t.Fatalf("show filters should send the menu: %+v", res)
	}

	res = cmds.HandleCallback(ctx, 4, "toggle_bogus")
	if res.Edit != nil || len(res.Replies) != 0 {
		t.Fatalf("unknown callback must be ignored: %+v", res)
	}
}

type fakeDriver struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) Start(context.Context, ports.Job) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerFallsBackToNextDriver(t *testing.T) {
	t.Parallel()

	managed := &fakeDriver{name: "managed", startErr: errors.New("no cron support")}
	loop := &fakeDriver{name: "loop"}
	cycle := newCycleFixture().cycle

	s := NewScheduler(cycle, nil, managed, loop)
	if s.Mode() != "none" {
		t.Fatalf("mode before start = %q", s.Mode())
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Mode() != "loop" || !loop.started || s.State() != "running" {
		t.Fatalf("expected loop fallback running, mode=%q state=%q", s.Mode(), s.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !loop.stopped || s.Mode() != "none" {
		t.Fatalf("driver not stopped, mode=%q", s.Mode())
	}
}

func TestSchedulerFailsWhenNoDriverStarts(t *testing.T) {
	t.Parallel()

	s := NewScheduler(newCycleFixture().cycle, nil, &fakeDriver{name: "managed", startErr: errors.New("nope")})
	err := s.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "managed: nope") {
		t.Fatalf("expected driver failure, got %v", err)
	}
}
