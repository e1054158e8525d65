package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
	"github.com/alareot-bit/coex-voltrally/internal/prefs"
	"github.com/alareot-bit/coex-voltrally/internal/pubsub"
)

// Button labels for the card's primary action.
const (
	labelJoinGroup = "Join Group"
	labelBuySolo   = "Buy Solo"
	labelBatchFull = "Batch Full"
)

// Change describes a pending selection handed to before-change
// interceptors; returning false from any interceptor vetoes it.
type Change struct {
	SKU     string
	OldMode domain.Mode
	NewMode domain.Mode
}

// SelectionChange is published after a selection is applied.
type SelectionChange struct {
	SKU     string                `json:"sku"`
	Mode    domain.Mode           `json:"mode"`
	Pricing domain.ProductPricing `json:"pricing"`
	At      time.Time             `json:"timestamp"`
}

// CardState is the derived visual state for one product card.
type CardState struct {
	SKU            string
	Mode           domain.Mode
	GroupSelected  bool
	SoloSelected   bool
	ButtonLabel    string
	ButtonDisabled bool
}

// Stats summarises the in-memory selection set for diagnostics.
type Stats struct {
	GlobalMode    domain.Mode            `json:"globalMode"`
	Selections    map[string]domain.Mode `json:"productSelections"`
	TotalChanges  int                    `json:"totalChanges"`
	LastChange    time.Time              `json:"lastChange"`
	PreferredMode domain.Mode            `json:"preferredMode"`
	GroupCount    int                    `json:"groupCount"`
	SoloCount     int                    `json:"soloCount"`
}

// SelectionExport is one row of the raw selection dump.
type SelectionExport struct {
	SKU     string                `json:"sku"`
	Mode    domain.Mode           `json:"mode"`
	Pricing domain.ProductPricing `json:"pricing"`
	At      time.Time             `json:"timestamp"`
}

type storedPrefs struct {
	Global        domain.Mode            `json:"global"`
	Products      map[string]domain.Mode `json:"products"`
	PreferredMode domain.Mode            `json:"preferredMode"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Options bundles constructor inputs for the selector.
type Options struct {
	Prefs    prefs.Store
	PrefsKey string
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Selector owns the pricing-mode selection state: a global mode (group
// by default) plus per-SKU overrides that take precedence. Its state is
// persisted independently of the store's lifecycle.
type Selector struct {
	mu        sync.Mutex
	global    domain.Mode
	overrides map[string]domain.Mode
	cards     map[string]domain.Product

	before     []func(Change) bool
	changed    *pubsub.Topic[SelectionChange]
	changes    int
	lastChange time.Time
	prefs      prefs.Store
	prefsKey   string
	logger     *zap.Logger
	clock      func() time.Time
}

// NewSelector constructs a selector with the group default.
func NewSelector(opts Options) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	store := opts.Prefs
	if store == nil {
		store = prefs.NewMemory()
	}
	key := opts.PrefsKey
	if key == "" {
		key = "voltrally:price-preferences"
	}
	return &Selector{
		global:    domain.ModeGroup,
		overrides: map[string]domain.Mode{},
		cards:     map[string]domain.Product{},
		changed:   pubsub.NewTopic[SelectionChange]("priceSelectionChange", logger),
		prefs:     store,
		prefsKey:  key,
		logger:    logger,
		clock:     clock,
	}
}

// Load restores persisted preferences; missing or corrupt blobs leave
// the defaults in place.
func (s *Selector) Load(ctx context.Context) {
	blob, err := s.prefs.Get(ctx, s.prefsKey)
	if err != nil {
		if !errors.Is(err, prefs.ErrNotFound) {
			s.logger.Warn("pricing: load preferences", zap.Error(err))
		}
		return
	}
	var stored storedPrefs
	if err := json.Unmarshal(blob, &stored); err != nil {
		s.logger.Warn("pricing: parse preferences", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored.Global != "" {
		s.global = domain.ParseMode(string(stored.Global))
	}
	for sku, mode := range stored.Products {
		s.overrides[sku] = domain.ParseMode(string(mode))
	}
}

// Changed exposes the selection-change topic for external listeners.
func (s *Selector) Changed() *pubsub.Topic[SelectionChange] { return s.changed }

// OnBeforeChange registers an interceptor that may veto a pending
// selection by returning false.
func (s *Selector) OnBeforeChange(fn func(Change) bool) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.before = append(s.before, fn)
	s.mu.Unlock()
}

// RegisterCard wires a product card into the selector and returns its
// current visual state. Registration is idempotent per SKU: a card is
// bound once, and later calls only refresh the product snapshot so
// cards created by subsequent renders stay wired.
func (s *Selector) RegisterCard(p domain.Product) CardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[p.SKU] = p
	return s.cardStateLocked(p.SKU)
}

// EffectiveMode resolves a SKU's mode: the per-SKU override when one
// exists, else the global mode.
func (s *Selector) EffectiveMode(sku string) domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveModeLocked(sku)
}

// GlobalMode returns the current global mode.
func (s *Selector) GlobalMode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global
}

// Select records a per-product mode choice. It returns the card's new
// state and false when an interceptor vetoed the change.
func (s *Selector) Select(ctx context.Context, sku string, mode domain.Mode) (CardState, bool) {
	s.mu.Lock()
	change := Change{SKU: sku, OldMode: s.effectiveModeLocked(sku), NewMode: mode}
	interceptors := make([]func(Change) bool, len(s.before))
	copy(interceptors, s.before)
	s.mu.Unlock()

	for _, fn := range interceptors {
		if !fn(change) {
			return s.CardState(sku), false
		}
	}

	s.mu.Lock()
	s.overrides[sku] = mode
	s.changes++
	s.lastChange = s.clock()
	state := s.cardStateLocked(sku)
	pricing := s.cards[sku].Pricing
	at := s.lastChange
	s.mu.Unlock()

	s.persist(ctx)
	s.changed.Publish(SelectionChange{SKU: sku, Mode: mode, Pricing: pricing, At: at})
	return state, true
}

// SetGlobalMode switches the default mode and returns the refreshed
// state of every registered card without an explicit override. Existing
// overrides are never altered.
func (s *Selector) SetGlobalMode(ctx context.Context, mode domain.Mode) []CardState {
	s.mu.Lock()
	if s.global == mode {
		s.mu.Unlock()
		return nil
	}
	s.global = mode
	s.changes++
	s.lastChange = s.clock()
	var updated []CardState
	for sku := range s.cards {
		if _, overridden := s.overrides[sku]; overridden {
			continue
		}
		updated = append(updated, s.cardStateLocked(sku))
	}
	s.mu.Unlock()

	s.persist(ctx)
	return updated
}

// CardState returns the derived visual state for a SKU.
func (s *Selector) CardState(sku string) CardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardStateLocked(sku)
}

// Statistics summarises the current selection set. Derived purely from
// in-memory state; diagnostics only.
func (s *Selector) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{
		GlobalMode:   s.global,
		Selections:   make(map[string]domain.Mode, len(s.overrides)),
		TotalChanges: s.changes,
		LastChange:   s.lastChange,
	}
	for sku, mode := range s.overrides {
		stats.Selections[sku] = mode
		if mode == domain.ModeGroup {
			stats.GroupCount++
		} else {
			stats.SoloCount++
		}
	}
	stats.PreferredMode = s.preferredModeLocked()
	return stats
}

// ExportSelections dumps the effective selection for every registered
// card.
func (s *Selector) ExportSelections() []SelectionExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	out := make([]SelectionExport, 0, len(s.cards))
	for sku, p := range s.cards {
		out = append(out, SelectionExport{
			SKU:     sku,
			Mode:    s.effectiveModeLocked(sku),
			Pricing: p.Pricing,
			At:      now,
		})
	}
	return out
}

// ResetAll clears every override and restores the group default.
func (s *Selector) ResetAll(ctx context.Context) {
	s.mu.Lock()
	s.overrides = map[string]domain.Mode{}
	s.global = domain.ModeGroup
	s.mu.Unlock()
	s.persist(ctx)
}

func (s *Selector) effectiveModeLocked(sku string) domain.Mode {
	if mode, ok := s.overrides[sku]; ok {
		return mode
	}
	return s.global
}

func (s *Selector) cardStateLocked(sku string) CardState {
	mode := s.effectiveModeLocked(sku)
	state := CardState{
		SKU:           sku,
		Mode:          mode,
		GroupSelected: mode == domain.ModeGroup,
		SoloSelected:  mode == domain.ModeSolo,
	}
	card, known := s.cards[sku]
	switch {
	case mode == domain.ModeSolo:
		state.ButtonLabel = labelBuySolo
	case known && !card.Batch.EligibleForGroup:
		// Solo purchases stay open when the batch is full.
		state.ButtonLabel = labelBatchFull
		state.ButtonDisabled = true
	default:
		state.ButtonLabel = labelJoinGroup
	}
	return state
}

func (s *Selector) preferredModeLocked() domain.Mode {
	group, solo := 0, 0
	for _, mode := range s.overrides {
		if mode == domain.ModeGroup {
			group++
		} else {
			solo++
		}
	}
	if solo > group {
		return domain.ModeSolo
	}
	return domain.ModeGroup
}

func (s *Selector) persist(ctx context.Context) {
	s.mu.Lock()
	stored := storedPrefs{
		Global:        s.global,
		Products:      make(map[string]domain.Mode, len(s.overrides)),
		PreferredMode: s.preferredModeLocked(),
		Timestamp:     s.clock(),
	}
	for sku, mode := range s.overrides {
		stored.Products[sku] = mode
	}
	s.mu.Unlock()

	blob, err := json.Marshal(stored)
	if err != nil {
		s.logger.Warn("pricing: encode preferences", zap.Error(err))
		return
	}
	if err := s.prefs.Set(ctx, s.prefsKey, blob); err != nil {
		s.logger.Warn("pricing: persist preferences", zap.Error(err))
	}
}
