package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alareot-bit/coex-voltrally/internal/content"
	"github.com/alareot-bit/coex-voltrally/internal/domain"
	"github.com/alareot-bit/coex-voltrally/internal/middleware"
)

// SetLocale applies a country/lang/currency form submission, queues a
// toast and redirects back to the submitting page.
func (h *Handler) SetLocale(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	patch := localePatchFromQuery(
		r.PostFormValue("country"),
		r.PostFormValue("lang"),
		r.PostFormValue("currency"),
		h.store.Locale(),
	)
	if !patch.IsZero() {
		h.store.UpdateLocale(r.Context(), patch)
		setFlash(w, h.bundle.T(h.displayLang(r), "toast.locale_updated"))
	}
	redirectBack(w, r)
}

// Share invokes the store's share capability. JSON callers (htmx or an
// explicit Accept) get the structured result; plain navigation gets a
// toast and a redirect back.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	result := h.store.Share(r.Context())
	if middleware.IsHTMX(r.Context()) || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if !result.Success {
			w.WriteHeader(http.StatusBadGateway)
		}
		if err := json.NewEncoder(w).Encode(result); err != nil {
			h.logger.Error("encode share result", zap.Error(err))
		}
		return
	}
	key := "toast.share_copied"
	if !result.Success {
		key = "toast.share_failed"
	}
	setFlash(w, h.bundle.T(h.displayLang(r), key))
	redirectBack(w, r)
}

// Join records the visitor's pricing-mode choice for a product card and
// redirects home with a toast. A veto leaves the selection unchanged.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sku := strings.TrimSpace(r.URL.Query().Get("sku"))
	if sku == "" {
		http.Error(w, "missing sku", http.StatusBadRequest)
		return
	}
	mode := domain.ParseMode(r.URL.Query().Get("mode"))
	lang := h.displayLang(r)

	state, ok := h.selector.Select(r.Context(), sku, mode)
	if ok {
		key := "toast.joined_group"
		if state.Mode == domain.ModeSolo {
			key = "toast.solo_order"
		}
		setFlash(w, h.bundle.T(lang, key))
	}
	redirectBack(w, r)
}

// DocsIndex lists the compliance documents.
func (h *Handler) DocsIndex(w http.ResponseWriter, r *http.Request) {
	lang := h.displayLang(r)
	data := struct {
		PageData
		Docs []content.Doc
	}{
		PageData: h.pageData(h.bundle.T(lang, "docs.title"), lang, "/docs", takeFlash(w, r)),
		Docs:     h.docs.List(lang),
	}
	h.render(w, "docs", data)
}

// Doc renders one compliance document.
func (h *Handler) Doc(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	lang := h.displayLang(r)
	doc, err := h.docs.Get(slug, lang)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load document", zap.String("slug", slug), zap.Error(err))
		http.Error(w, "document error", http.StatusInternalServerError)
		return
	}
	flash := takeFlash(w, r)
	if flash == "" {
		flash = h.bundle.T(lang, "toast.doc_opened")
	}
	data := struct {
		PageData
		Doc content.Doc
	}{
		PageData: h.pageData(doc.Title, lang, "/docs/"+doc.Slug, flash),
		Doc:      doc,
	}
	h.render(w, "doc", data)
}

// redirectBack returns to the referring page, defaulting to the home
// page, and never leaves the site.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if ref := r.Header.Get("Referer"); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			target = u.Path
			if u.RawQuery != "" {
				target += "?" + u.RawQuery
			}
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
