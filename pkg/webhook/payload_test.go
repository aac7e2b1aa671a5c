package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aga/pkg/models"
)

func decodeForm(t *testing.T, contentType string, body *bytes.Buffer) (map[string]string, *multipart.FileHeader) {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)

	fields := map[string]string{}
	for name, values := range form.Value {
		require.Len(t, values, 1)
		fields[name] = values[0]
	}

	files := form.File["csvFile"]
	if len(files) == 0 {
		return fields, nil
	}
	require.Len(t, files, 1)
	return fields, files[0]
}

func TestPayloadSerializers(t *testing.T) {
	base := Payload{
		RunID:                 "run-1",
		CampaignName:          "Spring Outreach",
		CampaignID:            "camp-1",
		CampaignLeadsID:       "lead-1",
		UserID:                "user-1",
		Rerun:                 false,
		ResearchPrompt:        "research things",
		PersonalizationPrompt: "personalize things",
		Task:                  "the task",
		Guidelines:            "the guidelines",
		Example:               "the example",
		Strategy:              "company-achievements",
	}

	t.Run("apollo form and persisted mirror agree on shared fields", func(t *testing.T) {
		p := base
		p.LeadSource = models.LeadSourceApollo
		p.ApolloURL = "https://app.apollo.io/#/people?x=1"
		p.LeadCount = 750

		var body bytes.Buffer
		contentType, err := p.EncodeMultipart(&body)
		require.NoError(t, err)

		fields, file := decodeForm(t, contentType, &body)
		assert.Nil(t, file)

		raw, err := json.Marshal(p.Persisted())
		require.NoError(t, err)
		var persisted map[string]any
		require.NoError(t, json.Unmarshal(raw, &persisted))

		for name, value := range fields {
			switch name {
			case "rerun":
				assert.Equal(t, persisted[name], value == "true", name)
			case "leadCount":
				assert.Equal(t, persisted[name], mustFloat(t, value), name)
			default:
				assert.Equal(t, persisted[name], value, "field %s", name)
			}
		}
		// Nothing persisted that never went over the wire
		assert.Len(t, persisted, len(fields))
	})

	t.Run("csv form carries the file and the mirror carries its metadata", func(t *testing.T) {
		p := base
		p.LeadSource = models.LeadSourceCSV
		p.CSVFileName = "leads.csv"
		p.CSVFile = []byte("First Name,Last Name,LinkedIn,Company Website,Email\n")

		var body bytes.Buffer
		contentType, err := p.EncodeMultipart(&body)
		require.NoError(t, err)

		fields, file := decodeForm(t, contentType, &body)
		require.NotNil(t, file)
		assert.Equal(t, "leads.csv", file.Filename)

		f, err := file.Open()
		require.NoError(t, err)
		defer f.Close()
		sent, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, p.CSVFile, sent)

		persisted := p.Persisted()
		assert.Equal(t, "leads.csv", persisted.CSVFileName)
		assert.Equal(t, len(p.CSVFile), persisted.CSVFileSize)
		assert.Empty(t, persisted.ApolloURL)
		assert.Equal(t, fields["campaignName"], persisted.CampaignName)
		assert.Equal(t, fields["leadSource"], persisted.LeadSource)
	})

	t.Run("optional flags appear in both forms when set", func(t *testing.T) {
		p := base
		p.LeadSource = models.LeadSourceApollo
		p.ApolloURL = "https://app.apollo.io/#/people"
		p.LeadCount = 500
		p.Demo = true
		p.SendToInstantly = true
		p.InstantlyCampaignID = "inst-9"

		var body bytes.Buffer
		contentType, err := p.EncodeMultipart(&body)
		require.NoError(t, err)

		fields, _ := decodeForm(t, contentType, &body)
		assert.Equal(t, "true", fields["demo"])
		assert.Equal(t, "true", fields["sendToInstantly"])
		assert.Equal(t, "inst-9", fields["campaignId"])

		persisted := p.Persisted()
		assert.True(t, persisted.Demo)
		assert.True(t, persisted.SendToInstantly)
		assert.Equal(t, "inst-9", persisted.InstantlyCampaignID)
	})
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return f
}
