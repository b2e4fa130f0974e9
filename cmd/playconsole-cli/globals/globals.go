package globals

import (
	"context"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/internal/scrapers/console"
)

type key int

const valueKey key = 0

type Value struct {
	Config Config
	Client *console.Client
	Tel    telemetry.API
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, valueKey, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(valueKey).(*Value)
}
