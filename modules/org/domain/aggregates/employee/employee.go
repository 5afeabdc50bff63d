package employee

import (
	"time"

	"github.com/helioshr/helios/pkg/accesscontrol"
)

// Employee is a person employed by a company, optionally attached to a
// branch and department, and optionally reporting to a supervisor in the
// same company. The supervisor edges form reporting chains of unbounded
// depth.
type Employee struct {
	id              int64
	userID          int64 // 0 = no linked account
	businessGroupID int64
	companyID       int64
	branchID        int64
	departmentID    int64
	supervisorID    int64 // 0 = top of the reporting chain
	code            string
	firstName       string
	lastName        string
	email           string
	position        string
	hiredAt         time.Time
	isActive        bool
	createdAt       time.Time
	updatedAt       time.Time
}

type Option func(*Employee)

func WithID(id int64) Option {
	return func(e *Employee) { e.id = id }
}

func WithUserID(userID int64) Option {
	return func(e *Employee) { e.userID = userID }
}

func WithBranchID(branchID int64) Option {
	return func(e *Employee) { e.branchID = branchID }
}

func WithDepartmentID(departmentID int64) Option {
	return func(e *Employee) { e.departmentID = departmentID }
}

func WithSupervisorID(supervisorID int64) Option {
	return func(e *Employee) { e.supervisorID = supervisorID }
}

func WithEmail(email string) Option {
	return func(e *Employee) { e.email = email }
}

func WithPosition(position string) Option {
	return func(e *Employee) { e.position = position }
}

func WithHiredAt(t time.Time) Option {
	return func(e *Employee) { e.hiredAt = t }
}

func WithIsActive(isActive bool) Option {
	return func(e *Employee) { e.isActive = isActive }
}

func WithCreatedAt(t time.Time) Option {
	return func(e *Employee) { e.createdAt = t }
}

func WithUpdatedAt(t time.Time) Option {
	return func(e *Employee) { e.updatedAt = t }
}

func New(businessGroupID, companyID int64, code, firstName, lastName string, opts ...Option) *Employee {
	e := &Employee{
		businessGroupID: businessGroupID,
		companyID:       companyID,
		code:            code,
		firstName:       firstName,
		lastName:        lastName,
		isActive:        true,
		createdAt:       time.Now(),
		updatedAt:       time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Employee) ID() int64              { return e.id }
func (e *Employee) UserID() int64          { return e.userID }
func (e *Employee) BusinessGroupID() int64 { return e.businessGroupID }
func (e *Employee) CompanyID() int64       { return e.companyID }
func (e *Employee) BranchID() int64        { return e.branchID }
func (e *Employee) DepartmentID() int64    { return e.departmentID }
func (e *Employee) SupervisorID() int64    { return e.supervisorID }
func (e *Employee) Code() string           { return e.code }
func (e *Employee) FirstName() string      { return e.firstName }
func (e *Employee) LastName() string       { return e.lastName }
func (e *Employee) Email() string          { return e.email }
func (e *Employee) Position() string       { return e.position }
func (e *Employee) HiredAt() time.Time     { return e.hiredAt }
func (e *Employee) IsActive() bool         { return e.isActive }
func (e *Employee) CreatedAt() time.Time   { return e.createdAt }
func (e *Employee) UpdatedAt() time.Time   { return e.updatedAt }

func (e *Employee) FullName() string {
	if e.lastName == "" {
		return e.firstName
	}
	return e.firstName + " " + e.lastName
}

func (e *Employee) SetName(firstName, lastName string) {
	e.firstName = firstName
	e.lastName = lastName
	e.updatedAt = time.Now()
}

func (e *Employee) SetEmail(email string) {
	e.email = email
	e.updatedAt = time.Now()
}

func (e *Employee) SetPosition(position string) {
	e.position = position
	e.updatedAt = time.Now()
}

func (e *Employee) SetDepartmentID(departmentID int64) {
	e.departmentID = departmentID
	e.updatedAt = time.Now()
}

func (e *Employee) SetBranchID(branchID int64) {
	e.branchID = branchID
	e.updatedAt = time.Now()
}

func (e *Employee) SetSupervisorID(supervisorID int64) {
	e.supervisorID = supervisorID
	e.updatedAt = time.Now()
}

func (e *Employee) Deactivate() {
	e.isActive = false
	e.updatedAt = time.Now()
}

// Coordinates locates the employee for authorization decisions. OwnerUserID
// carries the linked account so self-only principals can match their own
// record.
func (e *Employee) Coordinates() accesscontrol.Coordinates {
	return accesscontrol.Coordinates{
		BusinessGroupID: e.businessGroupID,
		CompanyID:       e.companyID,
		BranchID:        e.branchID,
		DepartmentID:    e.departmentID,
		OwnerUserID:     e.userID,
	}
}
