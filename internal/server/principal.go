package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/pkg/accesscontrol"
	"github.com/helioshr/helios/pkg/middleware"
)

// headerPrincipalResolver trusts identity headers set by the upstream
// gateway and enriches them with the user's active scope assignment. The
// newest active scope wins when several exist.
func headerPrincipalResolver(scopes userscope.Repository) middleware.PrincipalResolver {
	return func(r *http.Request) (accesscontrol.Principal, error) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
		if err != nil || userID <= 0 {
			return accesscontrol.Principal{}, fmt.Errorf("server: missing or invalid X-User-Id header")
		}
		tier, err := strconv.Atoi(r.Header.Get("X-Role-Tier"))
		if err != nil || tier <= 0 {
			return accesscontrol.Principal{}, fmt.Errorf("server: missing or invalid X-Role-Tier header")
		}

		principal := accesscontrol.Principal{
			UserID: userID,
			Tier:   accesscontrol.RoleTier(tier),
		}
		assignments, err := scopes.GetActiveByUser(r.Context(), userID)
		if err != nil {
			return accesscontrol.Principal{}, err
		}
		if len(assignments) > 0 {
			scope := assignments[0].Scope()
			principal.Scope = &scope
		}
		return principal, nil
	}
}
