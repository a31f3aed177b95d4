package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity names a record collection.
type Entity string

const (
	EntityBooking  Entity = "booking"
	EntityMovement Entity = "movement"
)

// Action is what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	// ActionBulk covers filter-wide updates; ID is zero.
	ActionBulk Action = "bulk"
)

// ChangeMessage is a lightweight record-change notification.
// Consumers fetch the current record from the store by ID.
type ChangeMessage struct {
	Entity    Entity    `json:"entity"`
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity Entity, id int64, action Action) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// RoutingKey is the key the message is published under, e.g. "booking.created".
func (m *ChangeMessage) RoutingKey() string {
	return string(m.Entity) + "." + string(m.Action)
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Entity {
	case EntityBooking, EntityMovement:
	default:
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionBulk:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
