package userscope

func NewAssignedEvent(data *UserScope) *AssignedEvent {
	return &AssignedEvent{Result: data}
}

func NewRevokedEvent(data *UserScope) *RevokedEvent {
	return &RevokedEvent{Result: data}
}

type AssignedEvent struct {
	Result *UserScope
}

type RevokedEvent struct {
	Result *UserScope
}
