package composables

import (
	"context"

	"github.com/helioshr/helios/pkg/constants"
)

// Endpoint is the HTTP surface of the current request. Services carry it into
// authorization decisions so per-endpoint grants can override the role and
// scope verdicts.
type Endpoint struct {
	Path   string
	Method string
}

func WithEndpoint(ctx context.Context, e Endpoint) context.Context {
	return context.WithValue(ctx, constants.EndpointKey, e)
}

// UseEndpoint returns the bound endpoint, or the zero value when the context
// did not come through the HTTP layer (CLI commands, seeds). Without an
// endpoint the override layer abstains and role/scope rules decide alone.
func UseEndpoint(ctx context.Context) Endpoint {
	e, _ := ctx.Value(constants.EndpointKey).(Endpoint)
	return e
}
