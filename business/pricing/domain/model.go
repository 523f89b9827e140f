// Package domain contains the core domain types for the pricing context.
package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PhoneModel is one tracked brand/model/storage variant.
type PhoneModel struct {
	Brand   string `json:"brand"`
	Name    string `json:"name"`
	Storage string `json:"storage"`
}

// Key returns the lower-cased identity "brand|name|storage".
func (m PhoneModel) Key() string {
	return strings.ToLower(m.Brand + "|" + m.Name + "|" + m.Storage)
}

// FamilyKey identifies the model regardless of storage.
func (m PhoneModel) FamilyKey() string {
	return strings.ToLower(m.Brand + "|" + m.Name)
}

// String returns e.g. "Google Pixel 9 128GB".
func (m PhoneModel) String() string {
	return m.Brand + " " + m.Name + " " + m.Storage
}

var storagePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(tb|gb|g|t)?\s*$`)

// storageSearch finds a capacity inside free text such as a listing title.
var storageSearch = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(tb|gb)\b`)

// CanonicalStorage converts "128 GB", "128gb", "128" and "1024GB" into
// "128GB" or "1TB". ok is false for text that is not a capacity.
func CanonicalStorage(text string) (string, bool) {
	m := storagePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return "", false
	}

	gb := value
	if unit := strings.ToLower(m[2]); unit == "tb" || unit == "t" {
		gb = value * 1024
	}

	if gb >= 1024 && int(gb)%1024 == 0 {
		return strconv.Itoa(int(gb)/1024) + "TB", true
	}
	if gb != float64(int(gb)) {
		return "", false
	}
	return strconv.Itoa(int(gb)) + "GB", true
}

// FindStorage extracts the first capacity mentioned in text.
func FindStorage(text string) (string, bool) {
	m := storageSearch.FindString(text)
	if m == "" {
		return "", false
	}
	return CanonicalStorage(m)
}

// Catalog is the immutable set of tracked models, built from config.
type Catalog struct {
	models []PhoneModel
	byKey  map[string]PhoneModel
}

// NewCatalog builds a catalog; storage values are canonicalized and
// duplicates collapse.
func NewCatalog(models ...PhoneModel) *Catalog {
	c := &Catalog{byKey: make(map[string]PhoneModel, len(models))}
	for _, m := range models {
		if s, ok := CanonicalStorage(m.Storage); ok {
			m.Storage = s
		}
		if _, dup := c.byKey[m.Key()]; dup {
			continue
		}
		c.byKey[m.Key()] = m
		c.models = append(c.models, m)
	}
	sort.SliceStable(c.models, func(i, j int) bool {
		return c.models[i].Key() < c.models[j].Key()
	})
	return c
}

// Models returns every variant ordered by key.
func (c *Catalog) Models() []PhoneModel {
	out := make([]PhoneModel, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of variants.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Get returns the model with the given key.
func (c *Catalog) Get(key string) (PhoneModel, bool) {
	m, ok := c.byKey[strings.ToLower(key)]
	return m, ok
}

// Lookup resolves brand, model name and raw storage text to a catalog entry.
func (c *Catalog) Lookup(brand, name, storage string) (PhoneModel, bool) {
	s, ok := CanonicalStorage(storage)
	if !ok {
		return PhoneModel{}, false
	}
	return c.Get(PhoneModel{Brand: brand, Name: name, Storage: s}.Key())
}

// Filter returns the variants whose name matches model case-insensitively.
// An empty model returns everything.
func (c *Catalog) Filter(model string) []PhoneModel {
	if model == "" {
		return c.Models()
	}
	var out []PhoneModel
	for _, m := range c.models {
		if strings.EqualFold(m.Name, model) || strings.EqualFold(m.Brand+" "+m.Name, model) {
			out = append(out, m)
		}
	}
	return out
}
