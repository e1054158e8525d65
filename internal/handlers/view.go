package handlers

import (
	"net/url"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
	"github.com/alareot-bit/coex-voltrally/internal/format"
	"github.com/alareot-bit/coex-voltrally/internal/market"
	"github.com/alareot-bit/coex-voltrally/internal/pricing"
)

// Aggregate stats shown in the hero strip. The weekly figures are
// editorial until the order service exposes real aggregates.
const (
	ordersThisWeek = 142
	memberCount    = 3847
)

const maxCardsPerSection = 6

// PageData carries the fields every layout render needs.
type PageData struct {
	Title      string
	Lang       string
	Path       string
	Flash      string
	Locale     domain.Locale
	Countries  []market.Country
	Currencies []market.Currency
}

// HomeData is the view model for the landing page.
type HomeData struct {
	PageData
	Loading          bool
	ErrMessage       string
	Hero             *HeroView
	Countdown        *CountdownView
	SelectedCategory string
	Sections         []CategorySection
	Stats            StatsView
	Ticker           []TickerView
	ShareURL         string
}

// HeroView is the current batch rendered for the hero block.
type HeroView struct {
	BatchID    string
	Container  string
	Port       string
	Seats      int
	Joined     int
	SeatsLeft  int
	Progress   int
	LockDate   string
	ShipDate   string
	ArriveDate string
}

// CountdownView is the lock-in countdown for the hero block.
type CountdownView struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
	Closed  bool
}

// CategorySection is one tabbed product grid.
type CategorySection struct {
	ID       string
	Name     string
	Slug     string
	Selected bool
	Cards    []CardView
}

// CardView is one product card with its pricing-mode state resolved.
type CardView struct {
	SKU            string
	Name           string
	Specs          string
	Image          string
	Badges         []string
	GroupPrice     string
	SoloPrice      string
	Saving         string
	NeedMore       int
	Progress       int
	GroupSelected  bool
	SoloSelected   bool
	ButtonKey      string
	ButtonDisabled bool
	JoinURL        string
}

// StatsView is the aggregate stats strip, preformatted.
type StatsView struct {
	AvgSaving      string
	CommunitySaved string
	OrdersThisWeek string
	Members        string
}

func (h *Handler) pageData(title, lang, path, flash string) PageData {
	return PageData{
		Title:      title,
		Lang:       lang,
		Path:       path,
		Flash:      flash,
		Locale:     h.store.Locale(),
		Countries:  h.markets.Countries(),
		Currencies: h.markets.Currencies(),
	}
}

// buildHomeData derives the full landing page view from a store
// snapshot. Every card the grid shows is registered with the price
// selector here, so the selector always knows the cards it governs.
func (h *Handler) buildHomeData(lang, flash, selectedCategory string) HomeData {
	snap := h.store.Snapshot()
	if selectedCategory == "" {
		selectedCategory = snap.SelectedCategory
	}
	if selectedCategory == "" {
		selectedCategory = domain.CategoryFeatured
	}

	data := HomeData{
		PageData:         h.pageData("VoltRally", lang, "/", flash),
		Loading:          snap.Loading,
		ErrMessage:       snap.Err,
		SelectedCategory: selectedCategory,
		Ticker:           h.buildTicker(),
		ShareURL:         h.store.ShareURL(),
	}

	if snap.CurrentBatch != nil {
		b := snap.CurrentBatch
		data.Hero = &HeroView{
			BatchID:    b.ID,
			Container:  b.Container,
			Port:       snap.Locale.Port,
			Seats:      b.Seats,
			Joined:     b.Joined,
			SeatsLeft:  b.SeatsLeft(),
			Progress:   b.Progress(),
			LockDate:   format.Date(b.LockAt),
			ShipDate:   format.Date(b.ShipAt),
			ArriveDate: format.Date(b.ArriveAt),
		}
		data.Stats = StatsView{
			AvgSaving:      h.store.FormatPrice(b.AvgSavingPerUnit),
			CommunitySaved: h.store.FormatPrice(b.TotalCommunitySaved),
			OrdersThisWeek: format.Grouped(ordersThisWeek),
			Members:        format.Grouped(memberCount),
		}
	}
	data.Countdown = h.buildCountdown()

	for _, cat := range snap.Categories {
		section := CategorySection{
			ID:       cat.ID,
			Name:     cat.Name,
			Slug:     cat.Slug,
			Selected: cat.ID == selectedCategory,
		}
		for _, p := range h.store.ProductsByCategory(cat.ID) {
			if len(section.Cards) == maxCardsPerSection {
				break
			}
			section.Cards = append(section.Cards, h.buildCard(p))
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

func (h *Handler) buildCard(p domain.Product) CardView {
	state := h.selector.RegisterCard(p)
	joinParams := url.Values{}
	joinParams.Set("sku", p.SKU)
	joinParams.Set("mode", string(state.Mode))
	return CardView{
		SKU:            p.SKU,
		Name:           p.Name,
		Specs:          p.Specs,
		Image:          p.Image,
		Badges:         p.Badges,
		GroupPrice:     h.store.FormatPrice(p.Pricing.Group),
		SoloPrice:      h.store.FormatPrice(p.Pricing.Solo),
		Saving:         h.store.FormatPrice(p.Pricing.Saving),
		NeedMore:       p.Batch.Need,
		Progress:       p.Batch.Progress,
		GroupSelected:  state.GroupSelected,
		SoloSelected:   state.SoloSelected,
		ButtonKey:      buttonKey(state),
		ButtonDisabled: state.ButtonDisabled,
		JoinURL:        "/join?" + joinParams.Encode(),
	}
}

// buttonKey maps the selector's canonical button label onto the
// dictionary, so the CTA follows the page language.
func buttonKey(state pricing.CardState) string {
	switch {
	case state.ButtonDisabled:
		return "pricing.batch_full"
	case state.Mode == domain.ModeSolo:
		return "pricing.buy_solo"
	default:
		return "pricing.join_group"
	}
}

func (h *Handler) buildCountdown() *CountdownView {
	c := h.store.Countdown()
	if c == nil {
		return nil
	}
	return &CountdownView{
		Days:    c.Days,
		Hours:   c.Hours,
		Minutes: c.Minutes,
		Seconds: c.Seconds,
		Closed:  c.Total() == 0,
	}
}
