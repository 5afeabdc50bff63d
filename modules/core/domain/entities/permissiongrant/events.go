package permissiongrant

func NewReplacedEvent(userID int64, result []*PermissionGrant) *ReplacedEvent {
	return &ReplacedEvent{UserID: userID, Result: result}
}

// ReplacedEvent fires after a user's grant set is swapped atomically.
type ReplacedEvent struct {
	UserID int64
	Result []*PermissionGrant
}
