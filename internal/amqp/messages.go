package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType names a change to the expense table.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is a lightweight change notification. It carries only the id;
// consumers fetch the full record from the database when they need it.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(t EventType, id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ExpenseEvent) Validate() error {
	switch e.Type {
	case EventExpenseAdded, EventExpenseDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ID <= 0 {
		return errors.New("event id must be positive")
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
