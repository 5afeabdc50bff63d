package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/helioshr/helios/modules/core/domain/entities/permissiongrant"
	"github.com/helioshr/helios/modules/core/domain/entities/userscope"
	"github.com/helioshr/helios/modules/core/services"
	"github.com/helioshr/helios/pkg/httpapi"
)

// AccessAPIController administers scope assignments and per-endpoint
// permission overrides.
type AccessAPIController struct {
	scopes      *services.ScopeService
	permissions *services.PermissionService
	basePath    string
}

func NewAccessAPIController(scopes *services.ScopeService, permissions *services.PermissionService) *AccessAPIController {
	return &AccessAPIController{
		scopes:      scopes,
		permissions: permissions,
		basePath:    "/api/v1",
	}
}

func (c *AccessAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()

	router.HandleFunc("/user-scopes", c.assignScope).Methods(http.MethodPost)
	router.HandleFunc("/user-scopes/{id:[0-9]+}", c.revokeScope).Methods(http.MethodDelete)
	router.HandleFunc("/users/{userID:[0-9]+}/scopes", c.listUserScopes).Methods(http.MethodGet)

	router.HandleFunc("/permissions/matrix", c.roleMatrix).Methods(http.MethodGet)
	router.HandleFunc("/users/{userID:[0-9]+}/permissions", c.listUserPermissions).Methods(http.MethodGet)
	router.HandleFunc("/users/{userID:[0-9]+}/permissions", c.replaceUserPermissions).Methods(http.MethodPut)
}

type scopeResponse struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	ScopeType  string `json:"scope_type"`
	ScopeID    int64  `json:"scope_id"`
	AssignedBy int64  `json:"assigned_by,omitempty"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
}

func toScopeResponse(s *userscope.UserScope) *scopeResponse {
	return &scopeResponse{
		ID:         s.ID(),
		UserID:     s.UserID(),
		ScopeType:  string(s.ScopeType()),
		ScopeID:    s.ScopeID(),
		AssignedBy: s.AssignedBy(),
		IsActive:   s.IsActive(),
		CreatedAt:  s.CreatedAt().Format(time.RFC3339),
	}
}

type grantResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	IsAllowed bool   `json:"is_allowed"`
	GrantedBy int64  `json:"granted_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toGrantResponse(g *permissiongrant.PermissionGrant) *grantResponse {
	return &grantResponse{
		ID:        g.ID(),
		UserID:    g.UserID(),
		Endpoint:  g.Endpoint(),
		Method:    g.Method(),
		IsAllowed: g.IsAllowed(),
		GrantedBy: g.GrantedBy(),
		CreatedAt: g.CreatedAt().Format(time.RFC3339),
	}
}

func userIDVar(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	return id
}

func (c *AccessAPIController) assignScope(w http.ResponseWriter, r *http.Request) {
	var dto userscope.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := c.scopes.Assign(r.Context(), &dto)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toScopeResponse(created))
}

func (c *AccessAPIController) revokeScope(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err := c.scopes.Revoke(r.Context(), id); err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *AccessAPIController) listUserScopes(w http.ResponseWriter, r *http.Request) {
	scopes, err := c.scopes.GetActiveByUser(r.Context(), userIDVar(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*scopeResponse, 0, len(scopes))
	for _, s := range scopes {
		items = append(items, toScopeResponse(s))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) roleMatrix(w http.ResponseWriter, r *http.Request) {
	matrix := c.permissions.Matrix()
	out := make(map[string]any, len(matrix.Tiers))
	for tier, policy := range matrix.Tiers {
		out[strconv.Itoa(int(tier))] = map[string]any{
			"name":         policy.Name,
			"actions":      policy.Actions,
			"scope_types":  policy.ScopeTypes,
			"unrestricted": policy.Unrestricted,
			"self_only":    policy.SelfOnly,
		}
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *AccessAPIController) listUserPermissions(w http.ResponseWriter, r *http.Request) {
	grants, err := c.permissions.GetActiveByUser(r.Context(), userIDVar(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*grantResponse, 0, len(grants))
	for _, g := range grants {
		items = append(items, toGrantResponse(g))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}

func (c *AccessAPIController) replaceUserPermissions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Grants []*permissiongrant.GrantDTO `json:"grants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	for _, dto := range body.Grants {
		if err := dto.Ok(); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	replaced, err := c.permissions.Replace(r.Context(), userIDVar(r), body.Grants)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*grantResponse, 0, len(replaced))
	for _, g := range replaced {
		items = append(items, toGrantResponse(g))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, items)
}
