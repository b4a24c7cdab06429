package amqp

import "testing"

func TestExpenseEventRoundTrip(t *testing.T) {
	ev := NewExpenseEvent(EventExpenseDeleted, 42)
	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ExpenseEventFromJSON(data)
	if err != nil {
		t.Fatalf("ExpenseEventFromJSON: %v", err)
	}
	if got.Type != EventExpenseDeleted || got.ID != 42 {
		t.Errorf("got %+v", got)
	}
	if !got.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ev.Timestamp)
	}
}

func TestExpenseEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      ExpenseEvent
		wantErr bool
	}{
		{"added", ExpenseEvent{Type: EventExpenseAdded, ID: 1}, false},
		{"deleted", ExpenseEvent{Type: EventExpenseDeleted, ID: 1}, false},
		{"empty type", ExpenseEvent{ID: 1}, true},
		{"zero id", ExpenseEvent{Type: EventExpenseAdded}, true},
		{"negative id", ExpenseEvent{Type: EventExpenseAdded, ID: -3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
