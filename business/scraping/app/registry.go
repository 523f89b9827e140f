package app

import (
	"sort"
	"strings"
	"sync"

	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/domain"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/apperror"
)

// Registry maps platform names and scraper types to adapter constructors.
// A platform-specific constructor wins over its scraper type.
type Registry struct {
	mu               sync.RWMutex
	byName           map[string]Constructor
	byType           map[string]Constructor
	fallbackToSample bool
}

// NewRegistry creates an empty registry. With fallbackToSample, platforms
// whose type has no constructor get the sample adapter.
func NewRegistry(fallbackToSample bool) *Registry {
	return &Registry{
		byName:           make(map[string]Constructor),
		byType:           make(map[string]Constructor),
		fallbackToSample: fallbackToSample,
	}
}

// Register binds a constructor to one platform name. It may be called at
// any time; later cycles pick it up.
func (r *Registry) Register(platform string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(platform)] = c
}

// RegisterType binds a constructor to a scraper type.
func (r *Registry) RegisterType(scraperType string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[strings.ToLower(scraperType)] = c
}

// Resolve returns the constructor for spec.
func (r *Registry) Resolve(spec domain.PlatformSpec) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byName[strings.ToLower(spec.Name)]; ok {
		return c, nil
	}
	if c, ok := r.byType[strings.ToLower(spec.ScraperType)]; ok {
		return c, nil
	}
	if r.fallbackToSample {
		if c, ok := r.byType[domain.TypeSample]; ok {
			return c, nil
		}
	}
	return nil, apperror.New(apperror.CodePlatformNotRegistered,
		apperror.WithContext(spec.Key()+" ("+spec.ScraperType+")"))
}

// Build resolves and runs the constructor for spec.
func (r *Registry) Build(spec domain.PlatformSpec, deps Deps) (Adapter, error) {
	c, err := r.Resolve(spec)
	if err != nil {
		return nil, err
	}
	a, err := c(spec, deps)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeConfigurationError, spec.Key())
	}
	return a, nil
}

// BuildAs runs the constructor registered for scraperType regardless of
// the platform's own type.
func (r *Registry) BuildAs(scraperType string, spec domain.PlatformSpec, deps Deps) (Adapter, error) {
	r.mu.RLock()
	c, ok := r.byType[strings.ToLower(scraperType)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperror.New(apperror.CodePlatformNotRegistered,
			apperror.WithContext("scraper type "+scraperType))
	}
	return c(spec, deps)
}

// Types lists registered scraper types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byType)
}

// Platforms lists platforms with a dedicated constructor.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byName)
}

func sortedKeys(m map[string]Constructor) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
