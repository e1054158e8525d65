package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

//go:embed docs/*/*.md
var docFS embed.FS

// ErrNotFound is returned when no document exists for a slug.
var ErrNotFound = errors.New("content: document not found")

// Doc is a rendered compliance document.
type Doc struct {
	Slug          string
	Lang          string
	Title         string
	Summary       string
	HTML          template.HTML
	EffectiveDate time.Time
	Version       string
	Icon          string
}

type frontMatter struct {
	Title         string `yaml:"title"`
	Summary       string `yaml:"summary"`
	EffectiveDate string `yaml:"effective_date"`
	Version       string `yaml:"version"`
	Icon          string `yaml:"icon"`
}

// Slugs lists the compliance documents in display order.
var Slugs = []string{"moq-policy", "customs-clearance", "ce-certification-warranty"}

// Library renders the embedded compliance documents on demand and
// caches the results per slug and language.
type Library struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]Doc
}

// NewLibrary builds a library with a GFM renderer and a UGC sanitiser.
func NewLibrary() *Library {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("table", "p", "span")
	policy.RequireNoFollowOnLinks(true)
	return &Library{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
		),
		policy: policy,
		cache:  map[string]Doc{},
	}
}

// Get returns the document for slug in lang, falling back to English
// when no translation exists.
func (l *Library) Get(slug, lang string) (Doc, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Doc{}, ErrNotFound
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}

	key := lang + "|" + slug
	l.mu.RLock()
	doc, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return doc, nil
	}

	languages := []string{lang}
	if lang != "en" {
		languages = append(languages, "en")
	}
	for _, candidate := range languages {
		doc, err := l.render(slug, candidate)
		if err == nil {
			l.mu.Lock()
			l.cache[key] = doc
			l.mu.Unlock()
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Doc{}, err
		}
	}
	return Doc{}, ErrNotFound
}

// List returns every document available for lang in display order.
func (l *Library) List(lang string) []Doc {
	out := make([]Doc, 0, len(Slugs))
	for _, slug := range Slugs {
		doc, err := l.Get(slug, lang)
		if err != nil {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func (l *Library) render(slug, lang string) (Doc, error) {
	raw, err := fs.ReadFile(docFS, "docs/"+lang+"/"+slug+".md")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Doc{}, ErrNotFound
		}
		return Doc{}, err
	}

	fm, body := splitFrontMatter(string(raw))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Doc{}, fmt.Errorf("content: parse front matter %s/%s: %w", lang, slug, err)
		}
	}

	var buf bytes.Buffer
	if err := l.md.Convert([]byte(body), &buf); err != nil {
		return Doc{}, fmt.Errorf("content: render %s/%s: %w", lang, slug, err)
	}
	sanitized := l.policy.SanitizeBytes(buf.Bytes())

	doc := Doc{
		Slug:    slug,
		Lang:    lang,
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		HTML:    template.HTML(sanitized),
		Version: strings.TrimSpace(front.Version),
		Icon:    strings.TrimSpace(front.Icon),
	}
	doc.EffectiveDate = parseDocDate(front.EffectiveDate)
	if doc.Title == "" {
		doc.Title = prettifySlug(slug)
	}
	return doc, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseDocDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsRune(slug, '/') {
		return ""
	}
	return slug
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(part)
		if runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] -= 'a' - 'A'
		}
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
