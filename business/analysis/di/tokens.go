// Package di contains dependency injection tokens for the analysis context.
package di

import (
	"github.com/prem-pandian/smartphone-price-tracker-v2/business/analysis/app"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("analysis.Service")
)

// Private dependency tokens - internal to analysis module
var (
	Engine = di.NewToken[*app.Engine]("analysis:engine")
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}
