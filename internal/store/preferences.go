package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
)

// Update is the outcome of a preference mutation.
type Update struct {
	Preference domain.Preference
	// FilterReset is set when a toggle would have emptied the filter and it
	// was restored to every category instead.
	FilterReset bool
	// PersistErr is non-nil when the change is live in memory but could not
	// be written to the blob store.
	PersistErr error
}

// PreferenceStore keeps per-recipient subscription state.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs map[int64]domain.Preference

	saveMu sync.Mutex
	blob   ports.BlobStore
	logger *slog.Logger
}

// NewPreferenceStore builds an empty store.
func NewPreferenceStore(blob ports.BlobStore, logger *slog.Logger) *PreferenceStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceStore{
		prefs:  map[int64]domain.Preference{},
		blob:   blob,
		logger: logger,
	}
}

// Get returns the stored preference or a fresh default. It never persists.
func (s *PreferenceStore) Get(id int64) domain.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[id]; ok {
		return p.Clone()
	}
	return domain.DefaultPreference(id)
}

// Recipients lists subscribed recipient ids in ascending order.
func (s *PreferenceStore) Recipients() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.prefs))
	for id, p := range s.prefs {
		if p.Subscribed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot returns copies of every known preference keyed by recipient.
func (s *PreferenceStore) Snapshot() map[int64]domain.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]domain.Preference, len(s.prefs))
	for id, p := range s.prefs {
		out[id] = p.Clone()
	}
	return out
}

// SetSubscribed flips the subscription flag, creating a default record on
// first contact. Repeating the same value is a no-op apart from persisting.
func (s *PreferenceStore) SetSubscribed(ctx context.Context, id int64, subscribed bool) Update {
	return s.mutate(ctx, id, func(p *domain.Preference) bool {
		p.Subscribed = subscribed
		return false
	})
}

// ToggleCategory flips one category in the recipient's filter.
func (s *PreferenceStore) ToggleCategory(ctx context.Context, id int64, cat domain.Category) Update {
	return s.mutate(ctx, id, func(p *domain.Preference) bool {
		return p.Toggle(cat)
	})
}

// SetAllCategories enables every category for the recipient.
func (s *PreferenceStore) SetAllCategories(ctx context.Context, id int64) Update {
	return s.mutate(ctx, id, func(p *domain.Preference) bool {
		p.Sentiments = domain.AllCategories()
		return false
	})
}

func (s *PreferenceStore) mutate(ctx context.Context, id int64, fn func(*domain.Preference) bool) Update {
	s.mu.Lock()
	pref, ok := s.prefs[id]
	if !ok {
		pref = domain.DefaultPreference(id)
	}
	pref = pref.Clone()
	reset := fn(&pref)
	s.prefs[id] = pref
	prefsRaw, setRaw, err := s.encodeLocked()
	update := Update{Preference: pref.Clone(), FilterReset: reset}
	if err != nil {
		s.mu.Unlock()
	} else {
		// Hand over to saveMu before releasing mu so concurrent mutations
		// are written in the order they were applied.
		s.saveMu.Lock()
		s.mu.Unlock()
		err = s.putLocked(ctx, prefsRaw, setRaw)
		s.saveMu.Unlock()
	}
	if err != nil {
		s.logger.Warn("preference change not persisted", "recipient_id", id, "error", err)
		update.PersistErr = err
	}
	return update
}

// encodeLocked serialises the preference map and the derived recipient set.
func (s *PreferenceStore) encodeLocked() ([]byte, []byte, error) {
	prefsRaw, err := json.Marshal(s.prefs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal preferences: %w", err)
	}

	set := make([]int64, 0, len(s.prefs))
	for id, p := range s.prefs {
		if p.Subscribed {
			set = append(set, id)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	setRaw, err := json.Marshal(set)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal recipient set: %w", err)
	}
	return prefsRaw, setRaw, nil
}

// putLocked writes both blobs. Callers hold saveMu.
func (s *PreferenceStore) putLocked(ctx context.Context, prefsRaw, setRaw []byte) error {
	if s.blob == nil {
		return nil
	}
	if err := s.blob.Put(ctx, KeyRecipientPreferences, prefsRaw); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if err := s.blob.Put(ctx, KeyRecipientSet, setRaw); err != nil {
		return fmt.Errorf("save recipient set: %w", err)
	}
	return nil
}

// Save writes preferences and the recipient set.
func (s *PreferenceStore) Save(ctx context.Context) error {
	s.mu.RLock()
	prefsRaw, setRaw, err := s.encodeLocked()
	if err != nil {
		s.mu.RUnlock()
		return err
	}
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()
	return s.putLocked(ctx, prefsRaw, setRaw)
}

// Load restores state from the blob store. Missing or corrupt blobs leave the
// store empty. Ids present only in the recipient set are restored as default
// subscribers so both views agree.
func (s *PreferenceStore) Load(ctx context.Context) {
	prefs := map[int64]domain.Preference{}
	if !s.decode(ctx, KeyRecipientPreferences, &prefs) || prefs == nil {
		prefs = map[int64]domain.Preference{}
	}

	var set []int64
	if !s.decode(ctx, KeyRecipientSet, &set) {
		set = nil
	}

	for id, p := range prefs {
		p.RecipientID = id
		p.Normalize()
		prefs[id] = p
	}
	for _, id := range set {
		if _, ok := prefs[id]; !ok {
			prefs[id] = domain.DefaultPreference(id)
		}
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()

	s.logger.Info("preferences loaded", "recipients", len(prefs), "subscribed", len(s.Recipients()))
}

func (s *PreferenceStore) decode(ctx context.Context, key string, v any) bool {
	if s.blob == nil {
		return false
	}

	raw, err := s.blob.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("load blob", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("decode blob, ignoring", "key", key, "error", err)
		return false
	}
	return true
}
