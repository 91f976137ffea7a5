package amqp

import (
	"encoding/json"
	"time"
)

// Change kinds carried on the entity-changes queue.
const (
	KindBill      = "bill"
	KindResidence = "residence"
)

// ChangeMessage signals that a bill or residence changed and its projections
// need a rebuild. It carries only the kind and id; the worker fetches the
// full record from the database.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBillChangedMessage(id int64) *ChangeMessage {
	return &ChangeMessage{Kind: KindBill, ID: id, Timestamp: time.Now()}
}

func NewResidenceChangedMessage(id int64) *ChangeMessage {
	return &ChangeMessage{Kind: KindResidence, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BudgetUpdatedMessage announces that a building's budget rows were rebuilt,
// so downstream consumers (the sheet exporter) can refresh.
type BudgetUpdatedMessage struct {
	BuildingID int64     `json:"building_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetUpdatedMessage(buildingID int64) *BudgetUpdatedMessage {
	return &BudgetUpdatedMessage{BuildingID: buildingID, Timestamp: time.Now()}
}

func (m *BudgetUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetUpdatedMessageFromJSON(data []byte) (*BudgetUpdatedMessage, error) {
	var msg BudgetUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
