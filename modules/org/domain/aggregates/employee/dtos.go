package employee

import (
	"fmt"
	"strings"
	"time"
)

type CreateDTO struct {
	BusinessGroupID int64  `json:"business_group_id"`
	CompanyID       int64  `json:"company_id"`
	BranchID        int64  `json:"branch_id"`
	DepartmentID    int64  `json:"department_id"`
	SupervisorID    int64  `json:"supervisor_id"`
	UserID          int64  `json:"user_id"`
	Code            string `json:"code"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Position        string `json:"position"`
	HiredAt         string `json:"hired_at"`
}

func (d *CreateDTO) Ok() error {
	if d.CompanyID <= 0 {
		return fmt.Errorf("employee: company id is required")
	}
	if strings.TrimSpace(d.Code) == "" || len(d.Code) > 50 {
		return fmt.Errorf("employee: code is required and must not exceed 50 characters")
	}
	if strings.TrimSpace(d.FirstName) == "" {
		return fmt.Errorf("employee: first name is required")
	}
	if d.Email != "" && !strings.Contains(d.Email, "@") {
		return fmt.Errorf("employee: email is invalid")
	}
	return nil
}

func (d *CreateDTO) ToEntity() (*Employee, error) {
	if err := d.Ok(); err != nil {
		return nil, err
	}
	opts := []Option{
		WithUserID(d.UserID),
		WithBranchID(d.BranchID),
		WithDepartmentID(d.DepartmentID),
		WithSupervisorID(d.SupervisorID),
		WithEmail(strings.TrimSpace(d.Email)),
		WithPosition(strings.TrimSpace(d.Position)),
	}
	if d.HiredAt != "" {
		hiredAt, err := time.Parse(time.DateOnly, d.HiredAt)
		if err != nil {
			return nil, fmt.Errorf("employee: hired_at must be YYYY-MM-DD: %w", err)
		}
		opts = append(opts, WithHiredAt(hiredAt))
	}
	return New(
		d.BusinessGroupID,
		d.CompanyID,
		strings.TrimSpace(d.Code),
		strings.TrimSpace(d.FirstName),
		strings.TrimSpace(d.LastName),
		opts...,
	), nil
}

type UpdateDTO struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email"`
	Position     *string `json:"position"`
	DepartmentID *int64  `json:"department_id"`
	BranchID     *int64  `json:"branch_id"`
	SupervisorID *int64  `json:"supervisor_id"`
}

func (d *UpdateDTO) Ok() error {
	if d.FirstName != nil && strings.TrimSpace(*d.FirstName) == "" {
		return fmt.Errorf("employee: first name is required")
	}
	if d.Email != nil {
		email := strings.TrimSpace(*d.Email)
		if email != "" && !strings.Contains(email, "@") {
			return fmt.Errorf("employee: email is invalid")
		}
	}
	return nil
}

func (d *UpdateDTO) Apply(entity *Employee) error {
	if d.FirstName != nil || d.LastName != nil {
		firstName := entity.FirstName()
		lastName := entity.LastName()
		if d.FirstName != nil {
			firstName = strings.TrimSpace(*d.FirstName)
		}
		if d.LastName != nil {
			lastName = strings.TrimSpace(*d.LastName)
		}
		if firstName == "" {
			return fmt.Errorf("employee: first name is required")
		}
		entity.SetName(firstName, lastName)
	}
	if d.Email != nil {
		email := strings.TrimSpace(*d.Email)
		if email != "" && !strings.Contains(email, "@") {
			return fmt.Errorf("employee: email is invalid")
		}
		entity.SetEmail(email)
	}
	if d.Position != nil {
		entity.SetPosition(strings.TrimSpace(*d.Position))
	}
	if d.DepartmentID != nil {
		entity.SetDepartmentID(*d.DepartmentID)
	}
	if d.BranchID != nil {
		entity.SetBranchID(*d.BranchID)
	}
	if d.SupervisorID != nil {
		entity.SetSupervisorID(*d.SupervisorID)
	}
	return nil
}
