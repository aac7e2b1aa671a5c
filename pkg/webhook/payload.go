package webhook

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/Ramsey-B/aga/pkg/models"
)

// Payload is the canonical in-memory job-trigger record. It has two
// serializers: WriteMultipart for the outbound HTTP call, which carries the
// raw CSV bytes, and Persisted for the JSON snapshot stored on the campaign,
// which substitutes file metadata for the bytes. Shared fields must agree
// between the two.
type Payload struct {
	LeadSource            models.LeadSource
	RunID                 string
	CampaignName          string
	CampaignID            string
	CampaignLeadsID       string
	UserID                string
	Rerun                 bool
	ResearchPrompt        string
	PersonalizationPrompt string
	Task                  string
	Guidelines            string
	Example               string
	Strategy              string

	// Apollo source only
	ApolloURL string
	LeadCount int

	// CSV source only
	CSVFileName string
	CSVFile     []byte

	// Optional flags
	Demo                bool
	SendToInstantly     bool
	InstantlyCampaignID string
}

// WriteMultipart writes the transport form onto w. The caller owns closing w.
func (p *Payload) WriteMultipart(w *multipart.Writer) error {
	fields := []struct {
		name  string
		value string
	}{
		{"leadSource", string(p.LeadSource)},
		{"run_id", p.RunID},
		{"campaignName", p.CampaignName},
		{"campaign_id", p.CampaignID},
		{"campaign_leads_id", p.CampaignLeadsID},
		{"user_id", p.UserID},
		{"rerun", strconv.FormatBool(p.Rerun)},
		{"perplexityPrompt", p.ResearchPrompt},
		{"personalizationPrompt", p.PersonalizationPrompt},
		{"promptTask", p.Task},
		{"promptGuidelines", p.Guidelines},
		{"promptExample", p.Example},
		{"personalizationStrategy", p.Strategy},
	}

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	switch p.LeadSource {
	case models.LeadSourceApollo:
		if err := w.WriteField("apolloUrl", p.ApolloURL); err != nil {
			return fmt.Errorf("failed to write field apolloUrl: %w", err)
		}
		if err := w.WriteField("leadCount", strconv.Itoa(p.LeadCount)); err != nil {
			return fmt.Errorf("failed to write field leadCount: %w", err)
		}
	case models.LeadSourceCSV:
		fw, err := w.CreateFormFile("csvFile", p.CSVFileName)
		if err != nil {
			return fmt.Errorf("failed to create csvFile part: %w", err)
		}
		if _, err := fw.Write(p.CSVFile); err != nil {
			return fmt.Errorf("failed to write csvFile part: %w", err)
		}
	}

	if p.Demo {
		if err := w.WriteField("demo", "true"); err != nil {
			return fmt.Errorf("failed to write field demo: %w", err)
		}
	}
	if p.SendToInstantly {
		if err := w.WriteField("sendToInstantly", "true"); err != nil {
			return fmt.Errorf("failed to write field sendToInstantly: %w", err)
		}
		if err := w.WriteField("campaignId", p.InstantlyCampaignID); err != nil {
			return fmt.Errorf("failed to write field campaignId: %w", err)
		}
	}

	return nil
}

// EncodeMultipart serializes the transport form into w and returns the
// multipart content type.
func (p *Payload) EncodeMultipart(w io.Writer) (contentType string, err error) {
	mw := multipart.NewWriter(w)
	if err := p.WriteMultipart(mw); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return mw.FormDataContentType(), nil
}

// PersistedPayload is the JSON-safe mirror stored on the campaign row.
type PersistedPayload struct {
	LeadSource            string `json:"leadSource"`
	RunID                 string `json:"run_id"`
	CampaignName          string `json:"campaignName"`
	CampaignID            string `json:"campaign_id"`
	CampaignLeadsID       string `json:"campaign_leads_id"`
	UserID                string `json:"user_id"`
	Rerun                 bool   `json:"rerun"`
	ResearchPrompt        string `json:"perplexityPrompt"`
	Task                  string `json:"promptTask"`
	PersonalizationPrompt string `json:"personalizationPrompt"`
	Guidelines            string `json:"promptGuidelines"`
	Example               string `json:"promptExample"`
	Strategy              string `json:"personalizationStrategy"`
	ApolloURL             string `json:"apolloUrl,omitempty"`
	LeadCount             int    `json:"leadCount,omitempty"`
	CSVFileName           string `json:"csvFileName,omitempty"`
	CSVFileSize           int    `json:"csvFileSize,omitempty"`
	Demo                  bool   `json:"demo,omitempty"`
	SendToInstantly       bool   `json:"sendToInstantly,omitempty"`
	InstantlyCampaignID   string `json:"campaignId,omitempty"`
}

// Persisted returns the JSON-safe mirror. The CSV bytes are replaced by the
// file name and size.
func (p *Payload) Persisted() PersistedPayload {
	out := PersistedPayload{
		LeadSource:            string(p.LeadSource),
		RunID:                 p.RunID,
		CampaignName:          p.CampaignName,
		CampaignID:            p.CampaignID,
		CampaignLeadsID:       p.CampaignLeadsID,
		UserID:                p.UserID,
		Rerun:                 p.Rerun,
		ResearchPrompt:        p.ResearchPrompt,
		Task:                  p.Task,
		PersonalizationPrompt: p.PersonalizationPrompt,
		Guidelines:            p.Guidelines,
		Example:               p.Example,
		Strategy:              p.Strategy,
		Demo:                  p.Demo,
		SendToInstantly:       p.SendToInstantly,
		InstantlyCampaignID:   p.InstantlyCampaignID,
	}

	switch p.LeadSource {
	case models.LeadSourceApollo:
		out.ApolloURL = p.ApolloURL
		out.LeadCount = p.LeadCount
	case models.LeadSourceCSV:
		out.CSVFileName = p.CSVFileName
		out.CSVFileSize = len(p.CSVFile)
	}

	return out
}
