package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestVisitorAssignsULIDCookie(t *testing.T) {
	var seen string
	h := Visitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := ulid.ParseStrict(seen); err != nil {
		t.Fatalf("visitor id %q is not a ulid: %v", seen, err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != visitorCookieName {
		t.Fatalf("expected %s cookie, got %v", visitorCookieName, cookies)
	}
	if cookies[0].Value != seen {
		t.Fatalf("cookie %q does not match context id %q", cookies[0].Value, seen)
	}
}

func TestVisitorReusesExistingCookie(t *testing.T) {
	id := ulid.Make().String()
	var seen string
	h := Visitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookieName, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != id {
		t.Fatalf("expected %q, got %q", id, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("valid cookie should not be reissued")
	}
}

func TestVisitorReplacesMalformedCookie(t *testing.T) {
	h := Visitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookieName, Value: "not-a-ulid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected replacement cookie, got %v", cookies)
	}
	if _, err := ulid.ParseStrict(cookies[0].Value); err != nil {
		t.Fatalf("replacement cookie is not a ulid: %v", err)
	}
}

func TestHTMXFlag(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is = IsHTMX(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !is {
		t.Fatal("HX-Request header should mark request as htmx")
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if is {
		t.Fatal("plain request should not be htmx")
	}
}
