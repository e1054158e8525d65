package handlers

import "net/http"

// CountdownFragment renders the lock-in countdown block. The page polls
// it every minute via htmx.
func (h *Handler) CountdownFragment(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Lang      string
		Countdown *CountdownView
	}{
		Lang:      h.displayLang(r),
		Countdown: h.buildCountdown(),
	}
	h.render(w, "countdown", data)
}

// TickerFragment renders the recent-orders strip. The page polls it
// every thirty minutes via htmx.
func (h *Handler) TickerFragment(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Lang   string
		Ticker []TickerView
	}{
		Lang:   h.displayLang(r),
		Ticker: h.buildTicker(),
	}
	h.render(w, "ticker", data)
}

// TickerView is one recent-order line with the country resolved to a
// display name.
type TickerView struct {
	Name    string
	Country string
	Action  string
	Product string
	Time    string
}

func (h *Handler) buildTicker() []TickerView {
	entries := h.store.OrderTicker()
	out := make([]TickerView, 0, len(entries))
	for _, e := range entries {
		out = append(out, TickerView{
			Name:    e.Name,
			Country: h.markets.CountryName(e.Country),
			Action:  e.Action,
			Product: e.Product,
			Time:    e.Time,
		})
	}
	return out
}
