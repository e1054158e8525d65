package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

const (
	readyPoll    = 100 * time.Millisecond
	readyCeiling = 5 * time.Second
)

// Home renders the full landing page. URL query parameters seed the
// locale and category; when they differ from the current locale a
// refresh runs before rendering. The handler waits for an in-flight
// load up to the readiness ceiling and then renders regardless, with
// skeleton placeholders when data is still absent.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if patch := localePatchFromQuery(q.Get("country"), q.Get("lang"), q.Get("currency"), h.store.Locale()); !patch.IsZero() {
		h.store.UpdateLocale(r.Context(), patch)
	}
	if cat := strings.TrimSpace(q.Get("category")); cat != "" {
		h.store.SelectCategory(strings.ToLower(cat))
	}

	h.store.WaitReady(r.Context(), readyPoll, readyCeiling)

	lang := h.displayLang(r)
	flash := takeFlash(w, r)
	h.render(w, "home", h.buildHomeData(lang, flash, strings.ToLower(q.Get("category"))))
}

// displayLang picks the dictionary language: the locale's language when
// supported, else the Accept-Language best match.
func (h *Handler) displayLang(r *http.Request) string {
	lang := strings.ToLower(h.store.Locale().Language)
	if h.bundle.IsSupported(lang) {
		return lang
	}
	return h.bundle.Resolve(r.Header.Get("Accept-Language"))
}

// localePatchFromQuery converts the shareable-link parameters into a
// locale patch, dropping values that match the current locale so a
// plain reload never triggers a refresh.
func localePatchFromQuery(country, lang, currency string, current domain.Locale) domain.LocalePatch {
	patch := domain.LocalePatch{}
	if c := strings.ToUpper(strings.TrimSpace(country)); c != "" && c != current.Country {
		patch.Country = &c
	}
	if l := strings.ToUpper(strings.TrimSpace(lang)); l != "" && l != current.Language {
		patch.Language = &l
	}
	if cur := strings.ToUpper(strings.TrimSpace(currency)); cur != "" && cur != current.Currency {
		patch.Currency = &cur
	}
	return patch
}
