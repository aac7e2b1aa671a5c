package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aga/pkg/models"
)

func testPayload() *Payload {
	return &Payload{
		LeadSource:   models.LeadSourceApollo,
		RunID:        "run-1",
		CampaignName: "Test",
		ApolloURL:    "https://app.apollo.io/#/people",
		LeadCount:    500,
	}
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestClientTrigger(t *testing.T) {
	t.Run("2xx counts as triggered", func(t *testing.T) {
		var gotContentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		client := NewClient(Config{URL: server.URL}, testLogger())
		result := client.Trigger(context.Background(), testPayload())

		assert.True(t, result.Triggered)
		assert.Equal(t, http.StatusAccepted, result.StatusCode)
		assert.NoError(t, result.Err)
		assert.Contains(t, gotContentType, "multipart/form-data")
	})

	t.Run("non-2xx is reported but not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(Config{URL: server.URL}, testLogger())
		result := client.Trigger(context.Background(), testPayload())

		assert.False(t, result.Triggered)
		assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
		assert.NoError(t, result.Err)
	})

	t.Run("transport failure surfaces in Err", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		server.Close()

		client := NewClient(Config{URL: server.URL}, testLogger())
		result := client.Trigger(context.Background(), testPayload())

		assert.False(t, result.Triggered)
		assert.Error(t, result.Err)
	})
}
