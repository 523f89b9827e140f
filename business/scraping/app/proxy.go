package app

import (
	"net/url"
	"strings"
	"sync"
)

// ProxyPool rotates proxies per platform. A retry moves the platform to
// the next proxy; a proxy that worked stays in place for later requests.
type ProxyPool struct {
	mu      sync.Mutex
	proxies []*url.URL
	current map[string]int
}

// NewProxyPool parses raw proxy addresses. Entries without a scheme are
// taken as http. Unparseable entries are skipped and returned.
func NewProxyPool(raw []string) (*ProxyPool, []string) {
	p := &ProxyPool{current: make(map[string]int)}
	var bad []string
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.Contains(r, "://") {
			r = "http://" + r
		}
		u, err := url.Parse(r)
		if err != nil || u.Host == "" {
			bad = append(bad, r)
			continue
		}
		p.proxies = append(p.proxies, u)
	}
	return p, bad
}

// Len returns the number of usable proxies.
func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Pick returns the proxy for the given attempt on platform, or nil when
// the pool is empty. Attempt 0 reuses the sticky proxy.
func (p *ProxyPool) Pick(platform string, attempt int) *url.URL {
	if p.Len() == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.current[platform]
	if attempt > 0 {
		i = (i + 1) % len(p.proxies)
		p.current[platform] = i
	}
	return p.proxies[i]
}
