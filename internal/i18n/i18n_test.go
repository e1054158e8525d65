package i18n

import "testing"

func TestResolveHonorsQValues(t *testing.T) {
	b, err := Load("en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := b.Resolve("en;q=0.8, es;q=0.9")
	if got != "es" {
		t.Fatalf("expected es, got %s", got)
	}
}

func TestResolveFallsBackOnUnsupported(t *testing.T) {
	b, err := Load("en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Resolve("fr-FR, de;q=0.9"); got != "en" {
		t.Fatalf("expected en fallback, got %s", got)
	}
	if got := b.Resolve("es-MX, en;q=0.5"); got != "es" {
		t.Fatalf("expected es from region tag, got %s", got)
	}
}

func TestTranslationFallbackChain(t *testing.T) {
	b, err := Load("en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.T("es", "pricing.join_group"); got != "Unirme al grupo" {
		t.Fatalf("es translation: got %q", got)
	}
	if got := b.T("de", "pricing.join_group"); got != "Join Group" {
		t.Fatalf("fallback translation: got %q", got)
	}
	if got := b.T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("missing key should echo, got %q", got)
	}
}
