package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/helioshr/helios/modules/org/domain/aggregates/department"
	"github.com/helioshr/helios/modules/org/domain/aggregates/employee"
	"github.com/helioshr/helios/modules/org/services"
	"github.com/helioshr/helios/pkg/composables"
	"github.com/helioshr/helios/pkg/httpapi"
)

// OrgAPIController exposes the organizational tree over JSON. Authorization
// lives in the services; the controller only parses, delegates and renders.
type OrgAPIController struct {
	departments *services.DepartmentService
	employees   *services.EmployeeService
	units       *services.OrgUnitService
	basePath    string
}

func NewOrgAPIController(
	departments *services.DepartmentService,
	employees *services.EmployeeService,
	units *services.OrgUnitService,
) *OrgAPIController {
	return &OrgAPIController{
		departments: departments,
		employees:   employees,
		units:       units,
		basePath:    "/api/v1",
	}
}

func (c *OrgAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()

	router.HandleFunc("/business-groups", c.listBusinessGroups).Methods(http.MethodGet)
	router.HandleFunc("/business-groups", c.createBusinessGroup).Methods(http.MethodPost)
	router.HandleFunc("/companies", c.listCompanies).Methods(http.MethodGet)
	router.HandleFunc("/companies", c.createCompany).Methods(http.MethodPost)
	router.HandleFunc("/branches", c.listBranches).Methods(http.MethodGet)
	router.HandleFunc("/branches", c.createBranch).Methods(http.MethodPost)

	router.HandleFunc("/departments", c.listDepartments).Methods(http.MethodGet)
	router.HandleFunc("/departments", c.createDepartment).Methods(http.MethodPost)
	router.HandleFunc("/departments/{id:[0-9]+}", c.getDepartment).Methods(http.MethodGet)
	router.HandleFunc("/departments/{id:[0-9]+}", c.updateDepartment).Methods(http.MethodPut)
	router.HandleFunc("/departments/{id:[0-9]+}", c.deactivateDepartment).Methods(http.MethodDelete)
	router.HandleFunc("/departments/{id:[0-9]+}/children", c.departmentChildren).Methods(http.MethodGet)
	router.HandleFunc("/departments/{id:[0-9]+}/hierarchy-path", c.departmentHierarchyPath).Methods(http.MethodGet)
	router.HandleFunc("/departments/{id:[0-9]+}/subtree", c.departmentSubtree).Methods(http.MethodGet)

	router.HandleFunc("/employees", c.listEmployees).Methods(http.MethodGet)
	router.HandleFunc("/employees", c.createEmployee).Methods(http.MethodPost)
	router.HandleFunc("/employees/me", c.myEmployee).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}", c.getEmployee).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}", c.updateEmployee).Methods(http.MethodPut)
	router.HandleFunc("/employees/{id:[0-9]+}", c.deactivateEmployee).Methods(http.MethodDelete)
	router.HandleFunc("/employees/{id:[0-9]+}/subordinates", c.employeeSubordinates).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}/team-tree", c.employeeTeamTree).Methods(http.MethodGet)
	router.HandleFunc("/employees/{id:[0-9]+}/reporting-chain", c.employeeReportingChain).Methods(http.MethodGet)
}

type departmentResponse struct {
	ID              int64  `json:"id"`
	BusinessGroupID int64  `json:"business_group_id"`
	CompanyID       int64  `json:"company_id"`
	BranchID        int64  `json:"branch_id,omitempty"`
	ParentID        int64  `json:"parent_id,omitempty"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	IsCorporate     bool   `json:"is_corporate"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toDepartmentResponse(d *department.Department) *departmentResponse {
	return &departmentResponse{
		ID:              d.ID(),
		BusinessGroupID: d.BusinessGroupID(),
		CompanyID:       d.CompanyID(),
		BranchID:        d.BranchID(),
		ParentID:        d.ParentID(),
		Code:            d.Code(),
		Name:            d.Name(),
		Description:     d.Description(),
		IsCorporate:     d.IsCorporate(),
		IsActive:        d.IsActive(),
		CreatedAt:       d.CreatedAt().Format(time.RFC3339),
		UpdatedAt:       d.UpdatedAt().Format(time.RFC3339),
	}
}

type employeeResponse struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id,omitempty"`
	BusinessGroupID int64  `json:"business_group_id"`
	CompanyID       int64  `json:"company_id"`
	BranchID        int64  `json:"branch_id,omitempty"`
	DepartmentID    int64  `json:"department_id,omitempty"`
	SupervisorID    int64  `json:"supervisor_id,omitempty"`
	Code            string `json:"code"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	FullName        string `json:"full_name"`
	Email           string `json:"email,omitempty"`
	Position        string `json:"position,omitempty"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toEmployeeResponse(e *employee.Employee) *employeeResponse {
	return &employeeResponse{
		ID:              e.ID(),
		UserID:          e.UserID(),
		BusinessGroupID: e.BusinessGroupID(),
		CompanyID:       e.CompanyID(),
		BranchID:        e.BranchID(),
		DepartmentID:    e.DepartmentID(),
		SupervisorID:    e.SupervisorID(),
		Code:            e.Code(),
		FirstName:       e.FirstName(),
		LastName:        e.LastName(),
		FullName:        e.FullName(),
		Email:           e.Email(),
		Position:        e.Position(),
		IsActive:        e.IsActive(),
		CreatedAt:       e.CreatedAt().Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt().Format(time.RFC3339),
	}
}

type listResponse struct {
	Total int64 `json:"total"`
	Items any   `json:"items"`
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}

func queryInt(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func (c *OrgAPIController) listBusinessGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := c.units.GetBusinessGroups(r.Context(), queryBool(r, "active_only"))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		items = append(items, map[string]any{
			"id":        g.ID(),
			"code":      g.Code(),
			"name":      g.Name(),
			"is_active": g.IsActive(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) createBusinessGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	created, err := c.units.CreateBusinessGroup(r.Context(), body.Code, body.Name)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":   created.ID(),
		"code": created.Code(),
		"name": created.Name(),
	})
}

func (c *OrgAPIController) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := c.units.GetCompanies(r.Context(), queryInt64(r, "business_group_id"), queryBool(r, "active_only"))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(companies))
	for _, entity := range companies {
		items = append(items, map[string]any{
			"id":                entity.ID(),
			"business_group_id": entity.BusinessGroupID(),
			"code":              entity.Code(),
			"name":              entity.Name(),
			"is_active":         entity.IsActive(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) createCompany(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BusinessGroupID int64  `json:"business_group_id"`
		Code            string `json:"code"`
		Name            string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	created, err := c.units.CreateCompany(r.Context(), body.BusinessGroupID, body.Code, body.Name)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":                created.ID(),
		"business_group_id": created.BusinessGroupID(),
		"code":              created.Code(),
		"name":              created.Name(),
	})
}

func (c *OrgAPIController) listBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := c.units.GetBranches(r.Context(), queryInt64(r, "company_id"), queryBool(r, "active_only"))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(branches))
	for _, entity := range branches {
		items = append(items, map[string]any{
			"id":              entity.ID(),
			"company_id":      entity.CompanyID(),
			"code":            entity.Code(),
			"name":            entity.Name(),
			"is_headquarters": entity.IsHeadquarters(),
			"is_active":       entity.IsActive(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) createBranch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BusinessGroupID int64  `json:"business_group_id"`
		CompanyID       int64  `json:"company_id"`
		Code            string `json:"code"`
		Name            string `json:"name"`
		IsHeadquarters  bool   `json:"is_headquarters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	created, err := c.units.CreateBranch(r.Context(), body.BusinessGroupID, body.CompanyID, body.Code, body.Name, body.IsHeadquarters)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":              created.ID(),
		"company_id":      created.CompanyID(),
		"code":            created.Code(),
		"name":            created.Name(),
		"is_headquarters": created.IsHeadquarters(),
	})
}

func (c *OrgAPIController) listDepartments(w http.ResponseWriter, r *http.Request) {
	params := &department.FindParams{
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
		CompanyID:  queryInt64(r, "company_id"),
		BranchID:   queryInt64(r, "branch_id"),
		ActiveOnly: queryBool(r, "active_only"),
		Search:     r.URL.Query().Get("search"),
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}

	total, err := c.departments.Count(r.Context(), params)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	entities, err := c.departments.GetPaginated(r.Context(), params)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*departmentResponse, 0, len(entities))
	for _, entity := range entities {
		items = append(items, toDepartmentResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: total, Items: items})
}

func (c *OrgAPIController) createDepartment(w http.ResponseWriter, r *http.Request) {
	var dto department.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := c.departments.Create(r.Context(), &dto)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toDepartmentResponse(created))
}

func (c *OrgAPIController) getDepartment(w http.ResponseWriter, r *http.Request) {
	entity, err := c.departments.GetByID(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDepartmentResponse(entity))
}

func (c *OrgAPIController) updateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto department.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	updated, err := c.departments.Update(r.Context(), pathID(r), &dto)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDepartmentResponse(updated))
}

func (c *OrgAPIController) deactivateDepartment(w http.ResponseWriter, r *http.Request) {
	deactivated, err := c.departments.Deactivate(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDepartmentResponse(deactivated))
}

func (c *OrgAPIController) departmentChildren(w http.ResponseWriter, r *http.Request) {
	children, err := c.departments.GetChildren(r.Context(), pathID(r), queryBool(r, "active_only"))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*departmentResponse, 0, len(children))
	for _, entity := range children {
		items = append(items, toDepartmentResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) departmentHierarchyPath(w http.ResponseWriter, r *http.Request) {
	path, err := c.departments.HierarchyPath(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*departmentResponse, 0, len(path))
	for _, entity := range path {
		items = append(items, toDepartmentResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) departmentSubtree(w http.ResponseWriter, r *http.Request) {
	ids, err := c.departments.SubtreeIDs(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (c *OrgAPIController) listEmployees(w http.ResponseWriter, r *http.Request) {
	params := &employee.FindParams{
		Limit:        queryInt(r, "limit"),
		Offset:       queryInt(r, "offset"),
		CompanyID:    queryInt64(r, "company_id"),
		BranchID:     queryInt64(r, "branch_id"),
		DepartmentID: queryInt64(r, "department_id"),
		ActiveOnly:   queryBool(r, "active_only"),
		Search:       r.URL.Query().Get("search"),
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}

	total, err := c.employees.Count(r.Context(), params)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	entities, err := c.employees.GetPaginated(r.Context(), params)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*employeeResponse, 0, len(entities))
	for _, entity := range entities {
		items = append(items, toEmployeeResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: total, Items: items})
}

func (c *OrgAPIController) createEmployee(w http.ResponseWriter, r *http.Request) {
	var dto employee.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	created, err := c.employees.Create(r.Context(), &dto)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (c *OrgAPIController) myEmployee(w http.ResponseWriter, r *http.Request) {
	principal, err := composables.UsePrincipal(r.Context())
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	entity, err := c.employees.GetByUserID(r.Context(), principal.UserID)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(entity))
}

func (c *OrgAPIController) getEmployee(w http.ResponseWriter, r *http.Request) {
	entity, err := c.employees.GetByID(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(entity))
}

func (c *OrgAPIController) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto employee.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	updated, err := c.employees.Update(r.Context(), pathID(r), &dto)
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

func (c *OrgAPIController) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	deactivated, err := c.employees.Deactivate(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(deactivated))
}

func (c *OrgAPIController) employeeSubordinates(w http.ResponseWriter, r *http.Request) {
	subordinates, err := c.employees.GetSubordinates(r.Context(), pathID(r), queryBool(r, "active_only"))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*employeeResponse, 0, len(subordinates))
	for _, entity := range subordinates {
		items = append(items, toEmployeeResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}

func (c *OrgAPIController) employeeTeamTree(w http.ResponseWriter, r *http.Request) {
	ids, err := c.employees.TeamTreeIDs(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (c *OrgAPIController) employeeReportingChain(w http.ResponseWriter, r *http.Request) {
	chain, err := c.employees.ReportingChain(r.Context(), pathID(r))
	if err != nil {
		httpapi.RespondError(w, err)
		return
	}
	items := make([]*employeeResponse, 0, len(chain))
	for _, entity := range chain {
		items = append(items, toEmployeeResponse(entity))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, &listResponse{Total: int64(len(items)), Items: items})
}
