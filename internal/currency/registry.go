package currency

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is a thread-safe set of known currencies, addressable by code
// or by a display symbol such as "€".
type Registry struct {
	byCode   map[string]*Currency
	bySymbol map[string]*Currency
	mu       sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byCode:   make(map[string]*Currency),
		bySymbol: make(map[string]*Currency),
	}
}

// Register adds a currency. Panics if the code is already registered.
func (r *Registry) Register(c *Currency, aliases ...string) {
	if c == nil {
		panic("currency: cannot register nil currency")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[c.code]; exists {
		panic(fmt.Sprintf("currency: %s already registered", c.code))
	}
	r.byCode[c.code] = c
	if c.symbol != "" {
		if _, taken := r.bySymbol[c.symbol]; !taken {
			r.bySymbol[c.symbol] = c
		}
	}
	for _, a := range aliases {
		r.bySymbol[a] = c
	}
}

// Get returns the currency for an ISO code, case-insensitive.
func (r *Registry) Get(code string) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Lookup resolves a code or a registered symbol.
func (r *Registry) Lookup(codeOrSymbol string) (*Currency, error) {
	if c, ok := r.Get(codeOrSymbol); ok {
		return c, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.bySymbol[strings.TrimSpace(codeOrSymbol)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, codeOrSymbol)
}

// symbols returns registered symbols, longest first, so "C$" wins over "$".
func (r *Registry) symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.bySymbol))
	for s := range r.bySymbol {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Codes returns all registered codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byCode))
	for c := range r.byCode {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Has reports whether code is registered.
func (r *Registry) Has(code string) bool {
	_, ok := r.Get(code)
	return ok
}
