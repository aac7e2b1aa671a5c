// Package deletion removes campaigns and their related records across the
// three collections, in a fixed dependency order.
package deletion

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aga/pkg/dashboard"
	"github.com/Ramsey-B/aga/pkg/models"
	"github.com/Ramsey-B/aga/pkg/tracing"
)

// CampaignStore resolves and deletes campaign rows
type CampaignStore interface {
	GetRefByName(ctx context.Context, userID, name string) (*models.CampaignRef, error)
	ListRefs(ctx context.Context, userID string) ([]models.CampaignRef, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// LeadStore deletes lead rows by owning campaign
type LeadStore interface {
	DeleteByCampaignID(ctx context.Context, campaignID string) error
	DeleteByCampaignIDs(ctx context.Context, campaignIDs []string) error
}

// RunStore deletes run rows
type RunStore interface {
	DeleteByRunID(ctx context.Context, userID, runID string) error
	DeleteByCampaignNames(ctx context.Context, userID string, names []string) error
}

// Refresher reconciles a session's projection with the store after an
// optimistic mutation
type Refresher interface {
	Refresh(ctx context.Context, session *dashboard.Session)
}

// Result is the outcome of a deletion, expressed as the user sees it
type Result struct {
	Deleted bool            `json:"deleted"`
	Count   int             `json:"count,omitempty"`
	Notices []models.Notice `json:"notices"`
}

// Service performs cascading campaign deletion
type Service struct {
	campaigns CampaignStore
	leads     LeadStore
	runs      RunStore
	refresher Refresher
	logger    ectologger.Logger
}

// NewService creates a new deletion service
func NewService(campaigns CampaignStore, leads LeadStore, runs RunStore, refresher Refresher, logger ectologger.Logger) *Service {
	return &Service{
		campaigns: campaigns,
		leads:     leads,
		runs:      runs,
		refresher: refresher,
		logger:    logger,
	}
}

// DeleteCampaign removes one campaign by (name, owner), its run row, and its
// lead rows. Order is Run, then Leads, then Campaign: children of the
// dashboard view go first so a mid-failure leaves the campaign visible
// instead of orphaning leads. Run and lead failures are logged and skipped;
// only a failure deleting the campaign row itself fails the operation.
// On success the session (when given) is updated optimistically and then
// reconciled with an authoritative refresh.
func (s *Service) DeleteCampaign(ctx context.Context, userID, campaignName, runID string, session *dashboard.Session) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "deletion.Service.DeleteCampaign")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":       userID,
		"campaign_name": campaignName,
		"run_id":        runID,
	})

	ref, err := s.campaigns.GetRefByName(ctx, userID, campaignName)
	if err != nil {
		return &Result{Notices: []models.Notice{
			models.Warning("Delete Failed", "Could not find campaign to delete."),
		}}, nil
	}
	if ref == nil {
		return &Result{Notices: []models.Notice{
			models.Warning("Campaign Not Found", "The campaign may have already been deleted."),
		}}, nil
	}

	if err := s.runs.DeleteByRunID(ctx, userID, runID); err != nil {
		log.WithError(err).Error("Failed to delete run row, continuing")
	}

	if err := s.leads.DeleteByCampaignID(ctx, ref.ID); err != nil {
		log.WithError(err).Error("Failed to delete campaign leads, continuing")
	}

	if err := s.campaigns.DeleteByID(ctx, ref.ID); err != nil {
		return &Result{Notices: []models.Notice{
			models.Warning("Delete Failed", "Failed to delete campaign. Please try again."),
		}}, nil
	}

	if session != nil {
		session.RemoveRun(runID)
		s.refresher.Refresh(ctx, session)
	}

	log.Info("Campaign deleted")
	return &Result{
		Deleted: true,
		Count:   1,
		Notices: []models.Notice{
			models.Info("Campaign Deleted", fmt.Sprintf("%q has been permanently deleted.", campaignName)),
		},
	}, nil
}

// DeleteAllCampaigns removes every campaign owned by the user, with the same
// order and best-effort-except-final-step policy as single deletion. Having
// nothing to delete is an ordinary outcome, not an error.
func (s *Service) DeleteAllCampaigns(ctx context.Context, userID string, session *dashboard.Session) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "deletion.Service.DeleteAllCampaigns")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{"user_id": userID})

	refs, err := s.campaigns.ListRefs(ctx, userID)
	if err != nil {
		return &Result{Notices: []models.Notice{
			models.Warning("Delete Failed", "Could not fetch campaigns to delete."),
		}}, nil
	}

	if len(refs) == 0 {
		return &Result{Notices: []models.Notice{
			models.Info("No Campaigns", "No campaigns found to delete."),
		}}, nil
	}

	names := make([]string, 0, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
		ids = append(ids, ref.ID)
	}

	if err := s.runs.DeleteByCampaignNames(ctx, userID, names); err != nil {
		log.WithError(err).Error("Failed to delete run rows, continuing")
	}

	if err := s.leads.DeleteByCampaignIDs(ctx, ids); err != nil {
		log.WithError(err).Error("Failed to delete campaign leads, continuing")
	}

	if err := s.campaigns.DeleteAllForUser(ctx, userID); err != nil {
		return &Result{Notices: []models.Notice{
			models.Warning("Delete Failed", "Failed to delete all campaigns. Please try again."),
		}}, nil
	}

	if session != nil {
		session.Clear()
		s.refresher.Refresh(ctx, session)
	}

	log.WithFields(map[string]any{"count": len(refs)}).Info("All campaigns deleted")
	return &Result{
		Deleted: true,
		Count:   len(refs),
		Notices: []models.Notice{
			models.Info("All Campaigns Deleted",
				fmt.Sprintf("Successfully deleted %d campaigns and all associated data.", len(refs))),
		},
	}, nil
}
