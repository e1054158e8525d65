package store

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
	"github.com/alareot-bit/coex-voltrally/internal/feed"
	"github.com/alareot-bit/coex-voltrally/internal/format"
	"github.com/alareot-bit/coex-voltrally/internal/market"
	"github.com/alareot-bit/coex-voltrally/internal/prefs"
	"github.com/alareot-bit/coex-voltrally/internal/pubsub"
)

const fallbackErrMessage = "Failed to load data. Using mock data."

// State is the single source of truth for the storefront. Snapshots are
// value copies; mutation happens only inside the Store.
type State struct {
	Locale           domain.Locale
	User             any
	OrderCount       int
	CurrentBatch     *domain.Batch
	Batches          map[string]domain.Batch
	Products         []domain.Product
	Categories       []domain.Category
	Loading          bool
	Err              string
	SelectedCategory string
}

// Events groups the store's typed notification topics.
type Events struct {
	LocaleChanged *pubsub.Topic[domain.Locale]
	Loading       *pubsub.Topic[bool]
	DataLoaded    *pubsub.Topic[State]
}

// Sharer abstracts a platform share capability. When absent the store
// falls back to handing back the canonical URL for copying.
type Sharer interface {
	Share(ctx context.Context, title, text, url string) error
}

// Options bundles constructor inputs for the store.
type Options struct {
	Feed     *feed.Client
	Prefs    prefs.Store
	Markets  *market.Registry
	Logger   *zap.Logger
	Clock    func() time.Time
	Rand     *rand.Rand
	SiteURL  string
	PrefsKey string
	Sharer   Sharer
}

// Store owns all application state and orchestrates the locale helper
// and the upstream feed. Overlapping refreshes resolve last-writer-wins
// through a request-generation counter: a completing fetch applies only
// while its generation is still the latest issued.
type Store struct {
	mu    sync.RWMutex
	state State

	events   Events
	feed     *feed.Client
	prefs    prefs.Store
	markets  *market.Registry
	logger   *zap.Logger
	clock    func() time.Time
	siteURL  string
	prefsKey string
	sharer   Sharer

	rndMu sync.Mutex
	rnd   *rand.Rand

	generation atomic.Uint64
}

// New constructs a store seeded with the default locale. Call Init to
// restore preferences and load data.
func New(opts Options) (*Store, error) {
	if opts.Feed == nil {
		return nil, errors.New("store: feed client is required")
	}
	if opts.Markets == nil {
		return nil, errors.New("store: market registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(clock().UnixNano()))
	}
	store := opts.Prefs
	if store == nil {
		store = prefs.NewMemory()
	}
	key := opts.PrefsKey
	if key == "" {
		key = "voltrally:locale"
	}
	return &Store{
		state: State{
			Locale:           market.DefaultLocale,
			Batches:          map[string]domain.Batch{},
			SelectedCategory: domain.CategoryFeatured,
		},
		events: Events{
			LocaleChanged: pubsub.NewTopic[domain.Locale]("localeChanged", logger),
			Loading:       pubsub.NewTopic[bool]("loading", logger),
			DataLoaded:    pubsub.NewTopic[State]("dataLoaded", logger),
		},
		feed:     opts.Feed,
		prefs:    store,
		markets:  opts.Markets,
		logger:   logger,
		clock:    clock,
		rnd:      rnd,
		siteURL:  opts.SiteURL,
		prefsKey: key,
		sharer:   opts.Sharer,
	}, nil
}

// Events exposes the notification topics for subscribers.
func (s *Store) Events() *Events { return &s.events }

// Init restores the persisted locale, runs best-effort country
// detection when no preference exists, and loads the initial dataset.
func (s *Store) Init(ctx context.Context) {
	restored := s.loadLocaleFromPrefs(ctx)
	if !restored {
		if geo := s.feed.GeoResolve(ctx); geo != nil {
			s.UpdateLocale(ctx, domain.LocalePatch{
				Country:  &geo.Country,
				Language: optional(geo.Language),
				Currency: optional(geo.Currency),
			})
			return
		}
	}
	s.Refresh(ctx)
}

// UpdateLocale merges the patch into the current locale, persists it,
// re-runs the full data refresh, then publishes LocaleChanged. Applying
// the same patch twice yields the same state.
func (s *Store) UpdateLocale(ctx context.Context, patch domain.LocalePatch) {
	if patch.IsZero() {
		return
	}
	s.mu.Lock()
	next := s.state.Locale
	if patch.Country != nil {
		// A country switch pulls the market defaults (port, currency,
		// symbol, rate) before the explicit patch fields overlay them.
		next = s.markets.LocaleFor(*patch.Country, next.Language)
		next.Language = s.state.Locale.Language
	}
	if patch.Currency != nil && patch.ExchangeRate == nil {
		cur := s.markets.PatchForCurrency(*patch.Currency)
		next = next.Merge(cur)
	}
	next = next.Merge(patch)
	s.state.Locale = next
	s.mu.Unlock()

	s.saveLocaleToPrefs(ctx, next)
	s.Refresh(ctx)
	s.events.LocaleChanged.Publish(next)
}

// Refresh re-runs the four-way data load for the current locale. The
// four fetches run in parallel; each present slice merges independently
// and total absence triggers the fallback synthesis. Results from a
// superseded refresh are discarded wholesale.
func (s *Store) Refresh(ctx context.Context) {
	gen := s.generation.Add(1)

	s.mu.Lock()
	s.state.Loading = true
	country := s.state.Locale.Country
	s.mu.Unlock()
	s.events.Loading.Publish(true)

	var (
		session *feed.SessionPayload
		home    *feed.HomePayload
		batches *feed.BatchPayload
		catalog *feed.CatalogPayload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { session = s.feed.Session(gctx); return nil })
	g.Go(func() error { home = s.feed.Home(gctx, country); return nil })
	g.Go(func() error { batches = s.feed.BatchSummary(gctx, country); return nil })
	g.Go(func() error { catalog = s.feed.Products(gctx, country); return nil })
	_ = g.Wait()

	if s.generation.Load() != gen {
		// A newer refresh was issued while this one was in flight; its
		// completion owns the state and the events.
		s.logger.Debug("store: discarding superseded refresh",
			zap.Uint64("generation", gen))
		return
	}

	s.mu.Lock()
	if session != nil {
		s.state.User = session.User
		s.state.OrderCount = session.OrderCount
	}
	if home != nil {
		s.state.Categories = home.Categories
	}
	if batches != nil {
		s.state.CurrentBatch = batches.Current
		if batches.Batches != nil {
			s.state.Batches = batches.Batches
		} else {
			s.state.Batches = map[string]domain.Batch{}
		}
	}
	if catalog != nil {
		s.state.Products = catalog.Products
	}
	if session == nil && home == nil && batches == nil && catalog == nil {
		s.applyFallbackLocked()
		s.state.Err = fallbackErrMessage
	} else {
		s.state.Err = ""
	}
	s.state.Loading = false
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.events.Loading.Publish(false)
	s.events.DataLoaded.Publish(snapshot)
}

// applyFallbackLocked synthesizes the complete offline dataset so the
// page never renders partially populated. Caller holds s.mu.
func (s *Store) applyFallbackLocked() {
	now := s.clock()
	s.rndMu.Lock()
	products := feed.FallbackProducts(s.state.Locale, s.rnd)
	s.rndMu.Unlock()

	batch := feed.FallbackBatch(now)
	s.state.Categories = feed.FallbackCategories()
	s.state.CurrentBatch = &batch
	s.state.Batches = map[string]domain.Batch{batch.ID: batch}
	s.state.Products = products
	s.logger.Warn("store: all data fetches failed, using fallback dataset",
		zap.String("country", s.state.Locale.Country))
}

// Snapshot returns a value copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	out := s.state
	if s.state.CurrentBatch != nil {
		b := *s.state.CurrentBatch
		out.CurrentBatch = &b
	}
	out.Batches = make(map[string]domain.Batch, len(s.state.Batches))
	for id, b := range s.state.Batches {
		out.Batches[id] = b
	}
	out.Products = make([]domain.Product, len(s.state.Products))
	copy(out.Products, s.state.Products)
	out.Categories = make([]domain.Category, len(s.state.Categories))
	copy(out.Categories, s.state.Categories)
	return out
}

// Locale returns the current locale.
func (s *Store) Locale() domain.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Locale
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// SelectCategory records the category the visitor is browsing.
func (s *Store) SelectCategory(category string) {
	if category == "" {
		return
	}
	s.mu.Lock()
	s.state.SelectedCategory = category
	s.mu.Unlock()
}

// ProductsByCategory returns the catalog subset for a category, or all
// featured products for the featured pseudo-category. Catalog order is
// preserved.
func (s *Store) ProductsByCategory(category string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Product
	for _, p := range s.state.Products {
		if category == domain.CategoryFeatured {
			if p.Featured {
				out = append(out, p)
			}
			continue
		}
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// BatchInfo returns a batch by ID, falling back to the current batch.
func (s *Store) BatchInfo(batchID string) *domain.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.state.Batches[batchID]; ok {
		out := b
		return &out
	}
	if s.state.CurrentBatch != nil {
		out := *s.state.CurrentBatch
		return &out
	}
	return nil
}

// Countdown computes the time remaining until the current batch locks.
// It returns nil without a batch, and all zeros once past lock time.
func (s *Store) Countdown() *domain.Countdown {
	s.mu.RLock()
	batch := s.state.CurrentBatch
	s.mu.RUnlock()
	if batch == nil {
		return nil
	}
	diff := batch.LockAt.Sub(s.clock())
	if diff <= 0 {
		return &domain.Countdown{}
	}
	total := int(diff / time.Second)
	return &domain.Countdown{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// FormatPrice converts a base-currency amount into the display currency
// with the locale's symbol and grouped thousands.
func (s *Store) FormatPrice(base int64) string {
	loc := s.Locale()
	return format.Price(base, loc.Symbol, loc.ExchangeRate)
}

// ShareURL builds the canonical shareable link reflecting the current
// locale and category selection.
func (s *Store) ShareURL() string {
	s.mu.RLock()
	loc := s.state.Locale
	category := s.state.SelectedCategory
	s.mu.RUnlock()

	params := url.Values{}
	params.Set("country", loc.Country)
	params.Set("lang", loc.Language)
	params.Set("currency", loc.Currency)
	if category != "" && category != domain.CategoryFeatured {
		params.Set("category", category)
	}
	return s.siteURL + "/?" + params.Encode()
}

// Share invokes the platform share capability when configured, falling
// back to handing the canonical URL back for copying. Failures are
// reported as a structured result, never an error.
func (s *Store) Share(ctx context.Context) domain.ShareResult {
	shareURL := s.ShareURL()
	if s.sharer == nil {
		return domain.ShareResult{Success: true, Copied: true, URL: shareURL}
	}
	saving := int64(600)
	s.mu.RLock()
	if s.state.CurrentBatch != nil {
		saving = s.state.CurrentBatch.AvgSavingPerUnit
	}
	s.mu.RUnlock()
	err := s.sharer.Share(ctx,
		"VoltRally - Factory-direct. Crowd-powered.",
		s.FormatPrice(saving)+" off electric vehicles through group shipping",
		shareURL)
	if err != nil {
		s.logger.Warn("store: share failed", zap.Error(err))
		return domain.ShareResult{Success: false, Error: err.Error(), URL: shareURL}
	}
	return domain.ShareResult{Success: true, URL: shareURL}
}

// WaitReady polls the loading flag until it clears or the ceiling
// elapses; it always returns so startup renders cannot hang.
func (s *Store) WaitReady(ctx context.Context, poll, ceiling time.Duration) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Second
	}
	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	tick := time.NewTicker(poll)
	defer tick.Stop()
	for {
		if !s.Loading() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}

func (s *Store) loadLocaleFromPrefs(ctx context.Context) bool {
	blob, err := s.prefs.Get(ctx, s.prefsKey)
	if err != nil {
		if !errors.Is(err, prefs.ErrNotFound) {
			s.logger.Warn("store: load locale preference", zap.Error(err))
		}
		return false
	}
	var stored domain.Locale
	if err := json.Unmarshal(blob, &stored); err != nil {
		s.logger.Warn("store: parse stored locale", zap.Error(err))
		return false
	}
	s.mu.Lock()
	// Defaults merged with the stored value keep the locale fully
	// populated even across schema additions.
	merged := market.DefaultLocale.Merge(domain.LocalePatch{
		Country:      optional(stored.Country),
		Language:     optional(stored.Language),
		Currency:     optional(stored.Currency),
		Symbol:       optional(stored.Symbol),
		Port:         optional(stored.Port),
		ExchangeRate: optionalRate(stored.ExchangeRate),
	})
	s.state.Locale = merged
	s.mu.Unlock()
	return true
}

func (s *Store) saveLocaleToPrefs(ctx context.Context, loc domain.Locale) {
	blob, err := json.Marshal(loc)
	if err != nil {
		s.logger.Warn("store: encode locale preference", zap.Error(err))
		return
	}
	if err := s.prefs.Set(ctx, s.prefsKey, blob); err != nil {
		s.logger.Warn("store: persist locale preference", zap.Error(err))
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalRate(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
