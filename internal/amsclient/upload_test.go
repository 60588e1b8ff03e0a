package amsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grijalva10/insurance-policy-migration/internal/models"
)

func TestUploadPolicies(t *testing.T) {
	var mu sync.Mutex
	var payloads []policyPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/policies", r.URL.Path)

		var payload policyPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Lock()
		payloads = append(payloads, payload)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL, Options{UploadWorkers: 2})

	records := []models.PolicyRecord{
		{
			PolicyNumber:   "ABC-1",
			Carrier:        "Hartford Fire Insurance",
			PolicyType:     "General Liability",
			BrokerEmail:    "jsmith@example.com",
			EffectiveDate:  models.NewDate(2024, time.January, 1),
			ExpirationDate: models.NewDate(2025, time.January, 1),
			Premium:        decimal.NewFromInt(1500),
			Status:         models.StatusActive,
		},
		{PolicyNumber: "ABC-2"},
		{PolicyNumber: "ABC-3"},
	}

	result := client.UploadPolicies(context.Background(), records)
	assert.Equal(t, 3, result.Uploaded)
	assert.Empty(t, result.Failed)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 3)
	for _, p := range payloads {
		assert.Equal(t, "Policy", p.Doctype)
		if p.PolicyNumber == "ABC-1" {
			assert.Equal(t, "jsmith@example.com", p.Broker)
			assert.Equal(t, "2024-01-01", p.EffectiveDate.String())
		}
	}
}

func TestUploadPoliciesPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload policyPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload.PolicyNumber == "BAD-1" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL, Options{UploadWorkers: 2, MaxRetries: 2})

	records := []models.PolicyRecord{
		{PolicyNumber: "ABC-1"},
		{PolicyNumber: "BAD-1"},
		{PolicyNumber: "ABC-2"},
	}

	result := client.UploadPolicies(context.Background(), records)
	assert.Equal(t, 2, result.Uploaded)
	assert.Equal(t, []string{"BAD-1"}, result.Failed)
}

func TestUploadPoliciesRetriesTransientFailure(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL, Options{UploadWorkers: 1, MaxRetries: 3})

	result := client.UploadPolicies(context.Background(), []models.PolicyRecord{{PolicyNumber: "ABC-1"}})
	assert.Equal(t, 1, result.Uploaded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, int32(2), requests.Load())
}

func TestUploadPoliciesEmptyBatch(t *testing.T) {
	client := testClient("http://127.0.0.1:0", Options{UploadWorkers: 2})

	result := client.UploadPolicies(context.Background(), nil)
	assert.Equal(t, 0, result.Uploaded)
	assert.Empty(t, result.Failed)
}
