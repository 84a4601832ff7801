package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"khata/internal/core"
)

// Op is what happened to a record.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// RecordChangedMessage announces that a stored record changed. It carries
// only identifiers; consumers re-read whatever they need from the store.
type RecordChangedMessage struct {
	AccountID string          `json:"account_id"`
	Entity    core.EntityType `json:"entity"`
	ID        string          `json:"id"`
	Op        Op              `json:"op"`
	// Month is the month the record belongs to, empty when unknown
	// (persons, deletes).
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChangedMessage stamps a message with the current time.
func NewRecordChangedMessage(accountID string, entity core.EntityType, id string, op Op, month core.MonthKey) *RecordChangedMessage {
	m := &RecordChangedMessage{
		AccountID: accountID,
		Entity:    entity,
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
	if !month.IsZero() {
		m.Month = month.String()
	}
	return m
}

// MonthKey parses Month; ok is false when the message names no month.
func (m *RecordChangedMessage) MonthKey() (core.MonthKey, bool) {
	if m.Month == "" {
		return core.MonthKey{}, false
	}
	k, err := core.ParseMonthKey(m.Month)
	if err != nil {
		return core.MonthKey{}, false
	}
	return k, true
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON decodes and checks a message body.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID == "" {
		return nil, fmt.Errorf("message without account_id")
	}
	if msg.Op != OpUpsert && msg.Op != OpDelete {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
