// Package i18n provides the message catalog behind the string.format and
// translate operators.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/rendis/remap/internal/remap"
)

// DefaultLocale is used when a caller does not name a locale.
const DefaultLocale = "en"

// Catalog stores compiled message templates per locale.
type Catalog struct {
	defaultTag language.Tag

	mu      sync.RWMutex
	locales map[string]map[string]*Template
}

// NewCatalog creates an empty catalog falling back to defaultLocale.
func NewCatalog(defaultLocale string) (*Catalog, error) {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = DefaultLocale
	}
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}
	return &Catalog{defaultTag: tag, locales: make(map[string]map[string]*Template)}, nil
}

// Add compiles and registers messages for locale. Existing ids are replaced.
func (c *Catalog) Add(locale string, messages map[string]string) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("parse locale tag %q: %w", locale, err)
	}

	compiled := make(map[string]*Template, len(messages))
	for id, source := range messages {
		key := strings.TrimSpace(id)
		if key == "" {
			return fmt.Errorf("locale %s: message id cannot be blank", tag)
		}
		tpl, err := Compile(tag, source)
		if err != nil {
			return fmt.Errorf("locale %s: %s: %w", tag, key, err)
		}
		compiled[key] = tpl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.locales[tag.String()]
	if !ok {
		existing = make(map[string]*Template, len(compiled))
		c.locales[tag.String()] = existing
	}
	for id, tpl := range compiled {
		existing[id] = tpl
	}
	return nil
}

// Clone returns a copy that can be extended without affecting c. Compiled
// templates are immutable and shared.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := &Catalog{defaultTag: c.defaultTag, locales: make(map[string]map[string]*Template, len(c.locales))}
	for locale, messages := range c.locales {
		copied := make(map[string]*Template, len(messages))
		for id, tpl := range messages {
			copied[id] = tpl
		}
		out.locales[locale] = copied
	}
	return out
}

// Load reads a YAML or JSON document of the form {locale: {id: message}}.
func Load(data []byte, defaultLocale string) (*Catalog, error) {
	c, err := NewCatalog(defaultLocale)
	if err != nil {
		return nil, err
	}
	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	locales := make([]string, 0, len(doc))
	for locale := range doc {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if err := c.Add(locale, doc[locale]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadFile reads a catalog file.
func LoadFile(path, defaultLocale string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog %s: %w", path, err)
	}
	return Load(data, defaultLocale)
}

// Locales returns the registered locale tags, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.locales))
	for locale := range c.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Message resolves id for locale, trying the locale, its base language and
// then the default locale.
func (c *Catalog) Message(locale, id string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range c.candidates(locale) {
		if tpl, ok := c.locales[key][id]; ok {
			return tpl, true
		}
	}
	return nil, false
}

func (c *Catalog) candidates(locale string) []string {
	var out []string
	if tag, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		out = append(out, tag.String())
		if base, conf := tag.Base(); conf != language.No {
			out = append(out, base.String())
		}
	}
	out = append(out, c.defaultTag.String())
	if base, conf := c.defaultTag.Base(); conf != language.No {
		out = append(out, base.String())
	}
	return out
}

// Lookup returns the message hook for an evaluation in locale. An unknown id
// falls back to the default message compiled for that locale; with no
// default message it is an error.
func (c *Catalog) Lookup(locale string) remap.MessageLookup {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = c.defaultTag
	}
	return func(id, defaultMessage string) (remap.Message, error) {
		if tpl, ok := c.Message(locale, id); ok {
			return tpl, nil
		}
		if defaultMessage == "" {
			return nil, fmt.Errorf("message %q not found for locale %s", id, tag)
		}
		return Compile(tag, defaultMessage)
	}
}
