package realtime

import (
	"encoding/json"
	"time"
)

// DebeziumEnvelope is the CDC message format on the runs topic
type DebeziumEnvelope struct {
	Schema  json.RawMessage `json:"schema,omitempty"`
	Payload DebeziumPayload `json:"payload"`
}

// DebeziumPayload contains the before/after state of a row
type DebeziumPayload struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
	Source DebeziumSource  `json:"source"`
	Op     string          `json:"op"` // c=create, u=update, d=delete, r=read (snapshot)
	TsMs   int64           `json:"ts_ms"`
}

// DebeziumSource contains metadata about the source of the change
type DebeziumSource struct {
	Connector string `json:"connector"`
	Name      string `json:"name"`
	Db        string `json:"db"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
}

// IsCreate returns true if this is a create operation
func (p *DebeziumPayload) IsCreate() bool {
	return p.Op == "c" || p.Op == "r"
}

// IsUpdate returns true if this is an update operation
func (p *DebeziumPayload) IsUpdate() bool {
	return p.Op == "u"
}

// IsDelete returns true if this is a delete operation
func (p *DebeziumPayload) IsDelete() bool {
	return p.Op == "d"
}

// Timestamp returns the event timestamp
func (p *DebeziumPayload) Timestamp() time.Time {
	return time.UnixMilli(p.TsMs)
}

// RunRow is a runs_progress row as carried in a CDC event
type RunRow struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	LeadCount    *int   `json:"lead_count"`
	Source       string `json:"source"`
	CampaignName string `json:"campaign_name"`
	UserAuthID   string `json:"user_auth_id"`
}

// ParseRunRow returns the row state carried by the event: After for
// creates/updates, Before for deletes. Returns nil when neither is present.
func (p *DebeziumPayload) ParseRunRow() (*RunRow, error) {
	raw := p.After
	if p.IsDelete() {
		raw = p.Before
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var row RunRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// ParseDebeziumMessage parses a raw Kafka message as a Debezium envelope
func ParseDebeziumMessage(data []byte) (*DebeziumEnvelope, error) {
	var envelope DebeziumEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}
