package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alareot-bit/coex-voltrally/internal/content"
	"github.com/alareot-bit/coex-voltrally/internal/i18n"
	"github.com/alareot-bit/coex-voltrally/internal/market"
	"github.com/alareot-bit/coex-voltrally/internal/pricing"
	"github.com/alareot-bit/coex-voltrally/internal/store"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const flashCookieName = "vr_flash"

// Options bundles the collaborators the handler set needs.
type Options struct {
	Store    *store.Store
	Selector *pricing.Selector
	Docs     *content.Library
	Bundle   *i18n.Bundle
	Markets  *market.Registry
	Logger   *zap.Logger
	Clock    func() time.Time
}

// Handler renders the storefront pages and fragments.
type Handler struct {
	store    *store.Store
	selector *pricing.Selector
	docs     *content.Library
	bundle   *i18n.Bundle
	markets  *market.Registry
	logger   *zap.Logger
	clock    func() time.Time
	tmpl     *template.Template
}

// New parses the embedded templates and wires the handler set.
func New(opts Options) (*Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	h := &Handler{
		store:    opts.Store,
		selector: opts.Selector,
		docs:     opts.Docs,
		bundle:   opts.Bundle,
		markets:  opts.Markets,
		logger:   logger,
		clock:    clock,
	}
	funcs := template.FuncMap{
		"t": opts.Bundle.T,
	}
	tmpl, err := template.New("_root").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	h.tmpl = tmpl
	return h, nil
}

// Routes mounts every page, fragment and action route.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/fragments/countdown", h.CountdownFragment)
	r.Get("/fragments/ticker", h.TickerFragment)
	r.Post("/locale", h.SetLocale)
	r.Get("/share", h.Share)
	r.Get("/join", h.Join)
	r.Get("/docs", h.DocsIndex)
	r.Get("/docs/{slug}", h.Doc)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// setFlash queues a toast for the next full page load.
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// takeFlash reads and clears the queued toast, if any.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:   flashCookieName,
		Path:   "/",
		MaxAge: -1,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
