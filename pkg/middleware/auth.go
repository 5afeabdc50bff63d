package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/httpapi"
)

// PrincipalResolver turns an incoming request into an authenticated
// principal. Token verification is owned by the deployment; the server only
// consumes its result.
type PrincipalResolver func(r *http.Request) (accesscontrol.Principal, error)

// Authenticate resolves the principal and binds it, together with the
// request's path and method, to the request context. Unresolvable requests
// are rejected with 401.
func Authenticate(resolve PrincipalResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolve(r)
			if err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
				return
			}
			ctx := composables.WithPrincipal(r.Context(), principal)
			ctx = composables.WithEndpoint(ctx, composables.Endpoint{
				Path:   r.URL.Path,
				Method: r.Method,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
