// Package di contains dependency injection tokens for the scraping context.
package di

import (
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/scraping/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Orchestrator = di.NewToken[*app.Orchestrator]("scraping.Orchestrator")
	Registry     = di.NewToken[*app.Registry]("scraping.Registry")
)

// Private dependency tokens - internal to scraping module
var (
	Fetcher = di.NewToken[*app.Fetcher]("scraping:fetcher")
)

func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetRegistry(c di.ServiceRegistry) *app.Registry {
	return di.GetToken(c, Registry)
}

func GetFetcher(c di.ServiceRegistry) *app.Fetcher {
	return di.GetToken(c, Fetcher)
}
