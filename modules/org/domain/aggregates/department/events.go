package department

func NewCreatedEvent(data *Department) *CreatedEvent {
	return &CreatedEvent{Result: data}
}

func NewUpdatedEvent(data *Department) *UpdatedEvent {
	return &UpdatedEvent{Result: data}
}

func NewMovedEvent(data *Department, oldParentID int64) *MovedEvent {
	return &MovedEvent{Result: data, OldParentID: oldParentID}
}

func NewDeactivatedEvent(data *Department) *DeactivatedEvent {
	return &DeactivatedEvent{Result: data}
}

type CreatedEvent struct {
	Result *Department
}

type UpdatedEvent struct {
	Result *Department
}

type MovedEvent struct {
	Result      *Department
	OldParentID int64
}

type DeactivatedEvent struct {
	Result *Department
}
