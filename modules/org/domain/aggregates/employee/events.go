package employee

func NewCreatedEvent(data *Employee) *CreatedEvent {
	return &CreatedEvent{Result: data}
}

func NewUpdatedEvent(data *Employee) *UpdatedEvent {
	return &UpdatedEvent{Result: data}
}

func NewReassignedEvent(data *Employee, oldSupervisorID int64) *ReassignedEvent {
	return &ReassignedEvent{Result: data, OldSupervisorID: oldSupervisorID}
}

func NewDeactivatedEvent(data *Employee) *DeactivatedEvent {
	return &DeactivatedEvent{Result: data}
}

type CreatedEvent struct {
	Result *Employee
}

type UpdatedEvent struct {
	Result *Employee
}

type ReassignedEvent struct {
	Result          *Employee
	OldSupervisorID int64
}

type DeactivatedEvent struct {
	Result *Employee
}
