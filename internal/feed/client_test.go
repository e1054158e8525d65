package feed

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

func TestMockRewrite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/products-mx", "/mock/products-mx.json"},
		{"/api/session", "/mock/session.json"},
		{"/api/batch-summary-eg/", "/mock/batch-summary-eg.json"},
		{"/api/data.json", "/mock/data.json"},
	}
	for _, tt := range tests {
		if got := mockRewrite(tt.in); got != tt.want {
			t.Fatalf("mockRewrite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetJSONFallsBackToMockPath(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"sku":"X1","batch":{"target":36,"joined":40}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	got := c.Products(context.Background(), "MX")
	if got == nil {
		t.Fatal("mock path should have produced a payload")
	}
	if len(paths) != 2 || paths[0] != "/api/products-mx" || paths[1] != "/mock/products-mx.json" {
		t.Fatalf("request paths: %v", paths)
	}
	// Ingest normalization clamps the malformed batch snapshot.
	b := got.Products[0].Batch
	if b.Joined != 36 || b.Need != 0 || b.EligibleForGroup {
		t.Fatalf("batch not normalized: %+v", b)
	}
}

func TestGetJSONUsesDedicatedMockHost(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()
	mock := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mock/session.json" {
			t.Errorf("unexpected mock path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderCount":5}`))
	}))
	defer mock.Close()

	c := NewClient(Options{BaseURL: primary.URL, MockBaseURL: mock.URL})
	got := c.Session(context.Background())
	if got == nil || got.OrderCount != 5 {
		t.Fatalf("session: %+v", got)
	}
}

func TestOfflineClientResolvesNil(t *testing.T) {
	c := NewClient(Options{})
	if c.Session(context.Background()) != nil {
		t.Fatal("client without base URLs should resolve nil")
	}
}

func TestGetJSONPrefersPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderCount":3}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	got := c.Session(context.Background())
	if got == nil || got.OrderCount != 3 {
		t.Fatalf("session: %+v", got)
	}
}

func TestFetchersResolveNilWhenBothPathsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	ctx := context.Background()
	if c.Session(ctx) != nil || c.Home(ctx, "MX") != nil ||
		c.BatchSummary(ctx, "MX") != nil || c.Products(ctx, "MX") != nil ||
		c.GeoResolve(ctx) != nil {
		t.Fatal("all fetchers should resolve nil on double failure")
	}
}

func TestGeoResolveRequiresCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"language":"es"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	if got := c.GeoResolve(context.Background()); got != nil {
		t.Fatalf("payload without a country should resolve nil, got %+v", got)
	}
}

func TestFallbackBatchShape(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	b := FallbackBatch(now)

	if b.ID != "MX-203" || b.Container != "20GP" {
		t.Fatalf("identity: %+v", b)
	}
	if b.Seats != 36 || b.Joined != 28 {
		t.Fatalf("fill: %d/%d", b.Joined, b.Seats)
	}
	if b.AvgSavingPerUnit != 600 || b.TotalCommunitySaved != 487290 {
		t.Fatalf("savings: %+v", b)
	}
	if b.LockAt != now.Add(5*24*time.Hour) ||
		b.ShipAt != now.Add(8*24*time.Hour) ||
		b.ArriveAt != now.Add(26*24*time.Hour) {
		t.Fatalf("milestones: %+v", b)
	}
}

func TestFallbackProductsInvariants(t *testing.T) {
	loc := domain.Locale{Country: "MX", Currency: "USD", Symbol: "$", ExchangeRate: 1}
	products := FallbackProducts(loc, rand.New(rand.NewSource(7)))

	if len(products) != 24 {
		t.Fatalf("expected 24 products, got %d", len(products))
	}

	perCategory := map[string]int{}
	for _, p := range products {
		perCategory[p.Category]++

		if p.Pricing.Group >= p.Pricing.Solo {
			t.Fatalf("%s: group price must undercut solo: %+v", p.SKU, p.Pricing)
		}
		if p.Pricing.Saving != p.Pricing.Solo-p.Pricing.Group {
			t.Fatalf("%s: saving mismatch: %+v", p.SKU, p.Pricing)
		}
		if p.Batch.Need+p.Batch.Joined != p.Batch.Target {
			t.Fatalf("%s: need+joined != target: %+v", p.SKU, p.Batch)
		}
		if p.Batch.EligibleForGroup != (p.Batch.Joined < p.Batch.Target) {
			t.Fatalf("%s: eligibility mismatch: %+v", p.SKU, p.Batch)
		}
		wantTarget := 36
		if p.Category == "batteries" {
			wantTarget = 78
		}
		if p.Batch.Target != wantTarget {
			t.Fatalf("%s: target %d, want %d", p.SKU, p.Batch.Target, wantTarget)
		}
		if !p.InStock {
			t.Fatalf("%s: fallback products are always in stock", p.SKU)
		}
	}
	for cat, n := range perCategory {
		if n != 6 {
			t.Fatalf("category %s has %d products", cat, n)
		}
	}

	// Identity and badge shape for the first category slice.
	first := products[0]
	if first.SKU != "3-WHEEL1000" || first.ID != "3-WHEEL-1000" {
		t.Fatalf("identity: sku=%q id=%q", first.SKU, first.ID)
	}
	if len(first.Badges) != 1 || first.Badges[0] != "HOT" {
		t.Fatalf("badges[0]: %v", first.Badges)
	}
	if products[1].Badges[0] != "NEW" || products[2].Badges[0] != "-15%" {
		t.Fatalf("badges: %v %v", products[1].Badges, products[2].Badges)
	}
	if products[3].Badges != nil {
		t.Fatalf("badges[3]: %v", products[3].Badges)
	}
	if !first.Featured || !products[1].Featured || products[2].Featured {
		t.Fatal("first two per category are featured")
	}
}

func TestFallbackProductsAreReproducible(t *testing.T) {
	loc := domain.Locale{Country: "MX", Currency: "USD", Symbol: "$"}
	a := FallbackProducts(loc, rand.New(rand.NewSource(42)))
	b := FallbackProducts(loc, rand.New(rand.NewSource(42)))
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].SKU != b[i].SKU || a[i].Pricing != b[i].Pricing || a[i].Batch != b[i].Batch {
			t.Fatalf("product %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFallbackCategoriesLeadWithFeatured(t *testing.T) {
	cats := FallbackCategories()
	if len(cats) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(cats))
	}
	if cats[0].ID != "featured" {
		t.Fatalf("first category: %q", cats[0].ID)
	}
}
