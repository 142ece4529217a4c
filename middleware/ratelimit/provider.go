package ratelimit

import "go.uber.org/fx"

func ProvideRateLimitStore() Store {
	return NewMemoryStore()
}

var Options = fx.Options(
	fx.Provide(ProvideRateLimitStore),
)
