//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/FrogonXO/shopify-student-verify/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		DatabaseSet,
		RepositorySet,
		ShopifySet,
		ServiceSet,
		HTTPSet,
		AppSet,
	))
}
