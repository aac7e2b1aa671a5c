package models

import (
	"encoding/json"
	"time"
)

// LeadSource identifies where a campaign's leads come from
type LeadSource string

const (
	LeadSourceApollo LeadSource = "apollo"
	LeadSourceCSV    LeadSource = "csv"
)

// Label is the human-readable form stored on campaign and run rows
func (s LeadSource) Label() string {
	switch s {
	case LeadSourceApollo:
		return "Apollo URL"
	case LeadSourceCSV:
		return "CSV Upload"
	default:
		return string(s)
	}
}

// Valid reports whether the source is one of the two supported values
func (s LeadSource) Valid() bool {
	return s == LeadSourceApollo || s == LeadSourceCSV
}

// Campaign is a named, owned batch job configuration for generating
// personalized outreach messages.
type Campaign struct {
	ID                      string          `json:"id" db:"id"`
	UserAuthID              string          `json:"user_auth_id" db:"user_auth_id"`
	Name                    string          `json:"name" db:"name"`
	Source                  string          `json:"source" db:"source"` // LeadSource label
	LeadCount               *int            `json:"lead_count,omitempty" db:"lead_count"`
	PersonalizationStrategy *string         `json:"personalization_strategy,omitempty" db:"personalization_strategy"`
	CustomPrompt            *string         `json:"custom_prompt,omitempty" db:"custom_prompt"`
	InstantlyCampaignID     *string         `json:"instantly_campaign_id,omitempty" db:"instantly_campaign_id"`
	CompletedCount          int             `json:"completed_count" db:"completed_count"`
	WebhookPayload          json.RawMessage `json:"webhook_payload,omitempty" db:"webhook_payload"`
	CreatedAt               time.Time       `json:"created_at" db:"created_at"`
}

// CampaignRef is the (id, name) pair used by bulk deletion
type CampaignRef struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// CampaignLead is the per-campaign placeholder/cache container created at
// submission time. Exactly one of ApolloCache/CSVCache is initialized,
// depending on the lead source; the other stays NULL.
type CampaignLead struct {
	ID          string          `json:"id" db:"id"`
	CampaignID  string          `json:"campaign_id" db:"campaign_id"`
	LeadData    json.RawMessage `json:"lead_data" db:"lead_data"`
	ApolloCache json.RawMessage `json:"apollo_cache,omitempty" db:"apollo_cache"`
	CSVCache    json.RawMessage `json:"csv_cache,omitempty" db:"csv_cache"`
}
