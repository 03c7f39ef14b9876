// Package events carries store changes to whoever listens, the websocket hub
// in production.
package events

import (
	"encoding/json"

	"github.com/asaskevich/EventBus"
)

// TopicStoreChanged is published after every committed store mutation.
const TopicStoreChanged = "store:changed"

type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionPaid     Action = "paid"
	ActionSynced   Action = "synced"
	ActionCleared  Action = "cleared"
	ActionRestored Action = "restored"
)

type Entity string

const (
	EntityRecord   Entity = "record"
	EntityLedger   Entity = "ledger"
	EntitySettings Entity = "settings"
	EntitySession  Entity = "session"
	EntityStore    Entity = "store"
)

// Change describes one committed mutation.
type Change struct {
	Action Action `json:"action"`
	Entity Entity `json:"entity"`
	ID     string `json:"id,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Message is the websocket payload for a change.
func (c Change) Message() []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"type":   "store_update",
		"action": c.Action,
		"entity": c.Entity,
		"id":     c.ID,
		"date":   c.Date,
	})
	return msg
}

// NewBus returns the process event bus.
func NewBus() EventBus.Bus {
	return EventBus.New()
}

// Forward subscribes fn to store changes.
func Forward(bus EventBus.BusSubscriber, fn func(Change)) error {
	return bus.Subscribe(TopicStoreChanged, fn)
}
