package domain

import "time"

type EventType string

const (
	EventCartItemAdded    EventType = "cart_item_added"
	EventCartItemRemoved  EventType = "cart_item_removed"
	EventCartQuantitySet  EventType = "cart_quantity_set"
	EventBatchSubmitted   EventType = "batch_submitted"
	EventEntityUpdated    EventType = "entity_updated"
	EventEntityDeleted    EventType = "entity_deleted"
	EventSessionLoggedIn  EventType = "session_logged_in"
	EventSessionLoggedOut EventType = "session_logged_out"
)

// A SessionEvent describes a state transition of the storefront session.
//
// Fields not relevant to Type are left zero.
type SessionEvent struct {
	ID         string
	Type       EventType
	Role       Role
	Kind       Kind
	EntityIDs  []string
	ProductID  string
	Quantity   int
	Accepted   int
	Failed     int
	Rejected   int
	OccurredAt time.Time
}
