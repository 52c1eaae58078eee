// Package srd exposes the static reference pages (classes, species, spells,
// monsters) that the forum allows comments on. Pages are not database rows;
// they are identified by kind and slug only.
package srd

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dizmorall/srdhub/models"
)

//go:embed pages.json
var pagesJSON []byte

// Page is a single reference entry.
type Page struct {
	Kind    models.TargetKind `json:"kind"`
	Slug    string            `json:"slug"`
	Name    string            `json:"name"`
	Summary string            `json:"summary"`
}

// Catalog indexes pages by kind and slug. It is read-only after construction.
type Catalog struct {
	pages map[models.TargetKind]map[string]Page
	order map[models.TargetKind][]string
}

// Load parses a catalog from JSON shaped as {"<kind>": [{"slug","name","summary"}...]}.
func Load(data []byte) (*Catalog, error) {
	var raw map[string][]Page
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse srd catalog: %w", err)
	}
	c := &Catalog{
		pages: make(map[models.TargetKind]map[string]Page),
		order: make(map[models.TargetKind][]string),
	}
	for k, list := range raw {
		kind := models.TargetKind(k)
		if !kind.IsPage() {
			return nil, fmt.Errorf("srd catalog: unknown page kind %q", k)
		}
		byslug := make(map[string]Page, len(list))
		for _, p := range list {
			slug := NormalizeSlug(p.Slug)
			if slug == "" {
				return nil, fmt.Errorf("srd catalog: empty slug in %q", k)
			}
			if _, dup := byslug[slug]; dup {
				return nil, fmt.Errorf("srd catalog: duplicate slug %s/%s", k, slug)
			}
			p.Kind, p.Slug = kind, slug
			byslug[slug] = p
			c.order[kind] = append(c.order[kind], slug)
		}
		sort.Strings(c.order[kind])
		c.pages[kind] = byslug
	}
	return c, nil
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Load(pagesJSON)
	if err != nil {
		panic(err)
	}
	return c
}

// NormalizeSlug trims and lower-cases a slug.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Kinds returns the page kinds present in the catalog, in fixed order.
func (c *Catalog) Kinds() []models.TargetKind {
	out := make([]models.TargetKind, 0, len(models.PageKinds))
	for _, k := range models.PageKinds {
		if _, ok := c.pages[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// List returns every page of a kind sorted by slug.
func (c *Catalog) List(kind models.TargetKind) []Page {
	slugs := c.order[kind]
	out := make([]Page, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, c.pages[kind][s])
	}
	return out
}

// Get looks up a page.
func (c *Catalog) Get(kind models.TargetKind, slug string) (Page, bool) {
	p, ok := c.pages[kind][NormalizeSlug(slug)]
	return p, ok
}

// Has reports whether the page exists.
func (c *Catalog) Has(kind models.TargetKind, slug string) bool {
	_, ok := c.Get(kind, slug)
	return ok
}
