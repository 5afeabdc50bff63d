package composables

import (
	"context"
	"errors"

	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/constants"
)

var ErrNoPrincipal = errors.New("no principal found in context")

// WithPrincipal binds the authenticated caller to the context. The
// authentication layer is expected to have verified identity already; this
// package only transports the result.
func WithPrincipal(ctx context.Context, p accesscontrol.Principal) context.Context {
	return context.WithValue(ctx, constants.PrincipalKey, p)
}

func UsePrincipal(ctx context.Context) (accesscontrol.Principal, error) {
	p, ok := ctx.Value(constants.PrincipalKey).(accesscontrol.Principal)
	if !ok {
		return accesscontrol.Principal{}, ErrNoPrincipal
	}
	return p, nil
}
