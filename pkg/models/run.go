package models

import (
	"fmt"
	"strings"
	"time"
)

// Run status values written by this service. Later transitions (processing,
// completed, failed, "check instantly campaign") belong to the external job
// system and are only observed here.
const (
	RunStatusInQueue = "In Queue"
)

// instantlyCampaignBase is where "check instantly campaign" runs link to
const instantlyCampaignBase = "https://app.instantly.ai/app/campaign"

// Run is the dashboard-facing progress record for one campaign submission.
// CampaignName is a denormalized copy of Campaign.Name, not a foreign key;
// joins by name are best-effort and may resolve to nothing.
type Run struct {
	RunID        string    `json:"run_id" db:"run_id"`
	Status       string    `json:"status" db:"status"`
	LeadCount    *int      `json:"lead_count,omitempty" db:"lead_count"`
	Source       string    `json:"source" db:"source"`
	CampaignName string    `json:"campaign_name" db:"campaign_name"`
	UserAuthID   string    `json:"user_auth_id" db:"user_auth_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RunStatusKind is the resolved presentation class of a raw run status
type RunStatusKind string

const (
	RunStatusKindQueued       RunStatusKind = "queued"
	RunStatusKindProcessing   RunStatusKind = "processing"
	RunStatusKindCompleted    RunStatusKind = "completed"
	RunStatusKindFailed       RunStatusKind = "failed"
	RunStatusKindExternalLink RunStatusKind = "external_link"
	RunStatusKindOther        RunStatusKind = "other"
)

// RunStatusView is a run status resolved once at the data-access boundary,
// so consumers branch on Kind instead of re-testing raw strings.
type RunStatusView struct {
	Kind  RunStatusKind `json:"kind"`
	Label string        `json:"label"`
	// Link is set only for KindExternalLink
	Link string `json:"link,omitempty"`
}

// ResolveRunStatus maps a raw status string to its presentation view.
// The "check instantly campaign" sentinel matches case-insensitively and
// renders as an outbound link to the instantly campaign's leads page.
func ResolveRunStatus(status, runID string) RunStatusView {
	if strings.EqualFold(status, "check instantly campaign") {
		return RunStatusView{
			Kind:  RunStatusKindExternalLink,
			Label: "Check Instantly Campaign",
			Link:  fmt.Sprintf("%s/%s/leads", instantlyCampaignBase, runID),
		}
	}

	switch status {
	case RunStatusInQueue:
		return RunStatusView{Kind: RunStatusKindQueued, Label: status}
	case "processing":
		return RunStatusView{Kind: RunStatusKindProcessing, Label: status}
	case "completed":
		return RunStatusView{Kind: RunStatusKindCompleted, Label: status}
	case "failed":
		return RunStatusView{Kind: RunStatusKindFailed, Label: status}
	default:
		return RunStatusView{Kind: RunStatusKindOther, Label: status}
	}
}

// RunView is a run plus its resolved status, as served to the dashboard
type RunView struct {
	Run
	StatusView RunStatusView `json:"status_view"`
}
