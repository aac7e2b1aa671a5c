// Package submission orchestrates turning one validated campaign submission
// into its persisted records plus the outbound job-trigger call.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/aga/internal/repositories/campaign"
	"github.com/Ramsey-B/aga/pkg/csvcheck"
	"github.com/Ramsey-B/aga/pkg/models"
	"github.com/Ramsey-B/aga/pkg/prompts"
	"github.com/Ramsey-B/aga/pkg/tracing"
	"github.com/Ramsey-B/aga/pkg/webhook"
)

var validate = validator.New()

// CampaignStore is the campaign persistence surface the pipeline needs
type CampaignStore interface {
	Exists(ctx context.Context, userID, name string) bool
	Create(ctx context.Context, userID string, params campaign.CreateParams) (*models.Campaign, error)
	AttachWebhookPayload(ctx context.Context, campaignID string, payload json.RawMessage) error
}

// LeadStore creates the placeholder lead row
type LeadStore interface {
	CreatePlaceholder(ctx context.Context, campaignID string, source models.LeadSource) (*models.CampaignLead, error)
}

// RunStore creates the dashboard progress row
type RunStore interface {
	Create(ctx context.Context, userID, campaignName string, source models.LeadSource, leadCount *int) (*models.Run, error)
}

// ProfileStore reads saved prompt overrides
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Trigger fires the outbound job-trigger call
type Trigger interface {
	Trigger(ctx context.Context, payload *webhook.Payload) webhook.Result
}

// Config holds the submission limits and flags
type Config struct {
	LeadCountMin int
	LeadCountMax int
	DemoMode     bool
}

// Request is one campaign submission
type Request struct {
	CampaignName string            `json:"campaignName" validate:"required"`
	LeadSource   models.LeadSource `json:"leadSource" validate:"required,oneof=apollo csv"`

	// Apollo source
	ApolloURL string `json:"apolloUrl" validate:"required_if=LeadSource apollo,omitempty,url"`
	LeadCount int    `json:"leadCount"`

	// CSV source
	CSVFileName string `json:"csvFileName"`
	CSVFile     []byte `json:"-"`

	// Prompt selection
	Mode         prompts.Mode `json:"mode" validate:"omitempty,oneof=standard power"`
	Strategy     string       `json:"strategy"`
	CustomPrompt string       `json:"customPrompt"`

	// Optional external-send forwarding
	SendToInstantly     bool   `json:"sendToInstantly"`
	InstantlyCampaignID string `json:"instantlyCampaignId"`
}

// Result is what one submission produced. Notices carry the user-facing
// outcome, including the warning-class webhook failures that do not fail the
// submission.
type Result struct {
	Campaign         *models.Campaign     `json:"campaign"`
	Lead             *models.CampaignLead `json:"lead"`
	Run              *models.Run          `json:"run"`
	WebhookTriggered bool                 `json:"webhookTriggered"`
	Notices          []models.Notice      `json:"notices"`
}

// Service is the campaign submission pipeline
type Service struct {
	campaigns CampaignStore
	leads     LeadStore
	runs      RunStore
	profiles  ProfileStore
	trigger   Trigger
	cfg       Config
	logger    ectologger.Logger
}

// NewService creates a new submission service
func NewService(campaigns CampaignStore, leads LeadStore, runs RunStore, profiles ProfileStore, trigger Trigger, cfg Config, logger ectologger.Logger) *Service {
	return &Service{
		campaigns: campaigns,
		leads:     leads,
		runs:      runs,
		profiles:  profiles,
		trigger:   trigger,
		cfg:       cfg,
		logger:    logger,
	}
}

// CheckName reports whether the proposed campaign name is already taken by
// the owner. This is the pre-submission gate; Submit re-checks right before
// the write.
func (s *Service) CheckName(ctx context.Context, userID, name string) bool {
	return s.campaigns.Exists(ctx, userID, name)
}

// validateRequest normalizes and validates the submission in place.
// The apollo lead count is clamped into the configured range rather than
// rejected; a blank count falls to the minimum.
func (s *Service) validateRequest(ctx context.Context, req *Request) error {
	req.CampaignName = strings.TrimSpace(req.CampaignName)
	if req.Mode == "" {
		req.Mode = prompts.ModeStandard
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	switch req.LeadSource {
	case models.LeadSourceApollo:
		if req.LeadCount < s.cfg.LeadCountMin {
			req.LeadCount = s.cfg.LeadCountMin
		}
		if req.LeadCount > s.cfg.LeadCountMax {
			req.LeadCount = s.cfg.LeadCountMax
		}
	case models.LeadSourceCSV:
		if len(req.CSVFile) == 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "a CSV file is required for the CSV Upload source")
		}
		check, err := csvcheck.Validate(bytes.NewReader(req.CSVFile))
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "failed to read CSV file")
		}
		if !check.Valid {
			return httperror.NewHTTPError(http.StatusBadRequest, check.Reason)
		}
	}

	return nil
}

// resolvePrompts loads profile overrides when they can apply and resolves
// the effective prompt set. A profile read failure falls back to the
// defaults rather than blocking the submission.
func (s *Service) resolvePrompts(ctx context.Context, userID string, req *Request) (prompts.Resolved, error) {
	var overrides *models.PromptOverrides
	if req.Mode == prompts.ModePower && req.Strategy == prompts.StrategyCustom {
		profile, err := s.profiles.GetByUserID(ctx, userID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to load profile, using default prompts")
		} else if profile != nil {
			o := profile.Overrides()
			overrides = &o
		}
	}

	return prompts.Resolve(req.Mode, req.Strategy, req.CustomPrompt, overrides)
}

// Submit runs the pipeline: final name gate, the three creation writes in
// dependency order, payload build, best-effort audit write, then the remote
// trigger. Creation failures abort without compensating deletes; whatever
// committed stays and must be tolerated downstream. A failed trigger is a
// warning, not a failure: the records remain visible and deletable.
func (s *Service) Submit(ctx context.Context, userID string, req Request) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "submission.Service.Submit")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id":       userID,
		"campaign_name": req.CampaignName,
		"lead_source":   req.LeadSource,
	})

	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}

	resolved, err := s.resolvePrompts(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	// Step 1: final uniqueness gate. Not atomic with the insert; two
	// concurrent submissions can both pass. See DESIGN.md.
	if s.campaigns.Exists(ctx, userID, req.CampaignName) {
		return nil, httperror.NewHTTPError(http.StatusConflict, "a campaign with this name already exists")
	}

	params := campaign.CreateParams{
		Name:   req.CampaignName,
		Source: req.LeadSource,
	}
	if req.LeadSource == models.LeadSourceApollo {
		leadCount := req.LeadCount
		params.LeadCount = &leadCount
	}
	if req.Mode == prompts.ModePower {
		strategy := resolved.Strategy
		params.PersonalizationStrategy = &strategy
		if resolved.Strategy == prompts.StrategyCustom {
			customPrompt := req.CustomPrompt
			params.CustomPrompt = &customPrompt
		}
	}

	// Step 2
	created, err := s.campaigns.Create(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	// Step 3
	lead, err := s.leads.CreatePlaceholder(ctx, created.ID, req.LeadSource)
	if err != nil {
		return nil, err
	}

	// Step 4
	run, err := s.runs.Create(ctx, userID, req.CampaignName, req.LeadSource, params.LeadCount)
	if err != nil {
		return nil, err
	}

	// Step 5
	payload := &webhook.Payload{
		LeadSource:            req.LeadSource,
		RunID:                 run.RunID,
		CampaignName:          created.Name,
		CampaignID:            created.ID,
		CampaignLeadsID:       lead.ID,
		UserID:                userID,
		Rerun:                 false,
		ResearchPrompt:        resolved.ResearchPrompt,
		PersonalizationPrompt: resolved.PersonalizationPrompt,
		Task:                  resolved.Task,
		Guidelines:            resolved.Guidelines,
		Example:               resolved.Example,
		Strategy:              resolved.Strategy,
		ApolloURL:             req.ApolloURL,
		LeadCount:             req.LeadCount,
		CSVFileName:           req.CSVFileName,
		CSVFile:               req.CSVFile,
		Demo:                  s.cfg.DemoMode,
		SendToInstantly:       req.SendToInstantly,
		InstantlyCampaignID:   req.InstantlyCampaignID,
	}

	// Step 6: audit copy, best-effort
	if raw, err := json.Marshal(payload.Persisted()); err != nil {
		log.WithError(err).Error("Failed to marshal webhook payload snapshot")
	} else if err := s.campaigns.AttachWebhookPayload(ctx, created.ID, raw); err != nil {
		log.WithError(err).Error("Failed to store webhook payload snapshot, continuing")
	} else {
		created.WebhookPayload = raw
	}

	// Step 7
	result := &Result{Campaign: created, Lead: lead, Run: run}
	trigger := s.trigger.Trigger(ctx, payload)

	// Step 8
	switch {
	case trigger.Triggered:
		result.WebhookTriggered = true
		result.Notices = append(result.Notices, models.Info("Webhook Triggered", "Campaign created and webhook triggered successfully!"))
	case trigger.Err != nil:
		result.Notices = append(result.Notices, models.Warning("Webhook Error", "Campaign created but webhook failed to trigger. Please check your webhook URL."))
	default:
		result.Notices = append(result.Notices, models.Warning("Webhook Warning",
			fmt.Sprintf("Webhook call failed (%d). Campaign created but webhook not triggered.", trigger.StatusCode)))
	}

	result.Notices = append(result.Notices, models.Info("Success!", "Your lead enrichment has been submitted successfully."))

	log.WithFields(map[string]any{
		"campaign_id": created.ID,
		"run_id":      run.RunID,
		"triggered":   result.WebhookTriggered,
	}).Info("Campaign submitted")

	return result, nil
}
