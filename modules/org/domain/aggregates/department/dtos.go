package department

import (
	"fmt"
	"strings"
)

type CreateDTO struct {
	BusinessGroupID int64  `json:"business_group_id"`
	CompanyID       int64  `json:"company_id"`
	BranchID        int64  `json:"branch_id"`
	ParentID        int64  `json:"parent_id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Description     string `json:"description"`
}

func (d *CreateDTO) Ok() error {
	if d.CompanyID <= 0 {
		return fmt.Errorf("department: company id is required")
	}
	if strings.TrimSpace(d.Code) == "" || len(d.Code) > 50 {
		return fmt.Errorf("department: code is required and must not exceed 50 characters")
	}
	name := strings.TrimSpace(d.Name)
	if len(name) < 2 || len(name) > 200 {
		return fmt.Errorf("department: name must be between 2 and 200 characters")
	}
	return nil
}

func (d *CreateDTO) ToEntity() (*Department, error) {
	if err := d.Ok(); err != nil {
		return nil, err
	}
	return New(
		d.BusinessGroupID,
		d.CompanyID,
		strings.TrimSpace(d.Code),
		strings.TrimSpace(d.Name),
		WithBranchID(d.BranchID),
		WithParentID(d.ParentID),
		WithDescription(strings.TrimSpace(d.Description)),
	), nil
}

// UpdateDTO carries partial updates; nil means "leave unchanged". ParentID
// and BranchID use pointers so callers can clear an edge with an explicit
// zero.
type UpdateDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
	BranchID    *int64  `json:"branch_id"`
}

func (d *UpdateDTO) Ok() error {
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		if len(name) < 2 || len(name) > 200 {
			return fmt.Errorf("department: name must be between 2 and 200 characters")
		}
	}
	return nil
}

func (d *UpdateDTO) Apply(entity *Department) error {
	if d.Name != nil {
		name := strings.TrimSpace(*d.Name)
		if len(name) < 2 || len(name) > 200 {
			return fmt.Errorf("department: name must be between 2 and 200 characters")
		}
		entity.SetName(name)
	}
	if d.Description != nil {
		entity.SetDescription(strings.TrimSpace(*d.Description))
	}
	if d.BranchID != nil {
		entity.SetBranchID(*d.BranchID)
	}
	if d.ParentID != nil {
		entity.SetParentID(*d.ParentID)
	}
	return nil
}
