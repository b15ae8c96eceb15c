package extract_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/common"
	"github.com/FinTechTonic/creditnexus/internal/extract"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const validAgreementJSON = `{
	"extraction_status": "success",
	"agreement_date": "2023-10-15",
	"parties": [
		{"name": "ACME INDUSTRIES INC.", "role": "Borrower"},
		{"name": "FIRST NATIONAL BANK", "role": "Lender"}
	],
	"facilities": [
		{
			"facility_name": "Term Loan Facility",
			"commitment_amount": {"amount": 500000000, "currency": "USD"},
			"maturity_date": "2028-10-15"
		}
	],
	"governing_law": "State of New York"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *extract.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return extract.NewClient(extract.Config{BaseURL: srv.URL}, quietLogger())
}

func TestClient_ExtractEnvelopeForm(t *testing.T) {
	var gotBody struct {
		Text           string `json:"text"`
		ForceMapReduce bool   `json:"force_map_reduce"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/extract", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "success", "agreement": ` + validAgreementJSON + `}`))
	})

	res, err := client.Extract(context.Background(), extract.Request{Text: "This Credit Agreement..."})
	require.NoError(t, err)
	assert.Equal(t, "This Credit Agreement...", gotBody.Text)
	assert.False(t, gotBody.ForceMapReduce)

	assert.Equal(t, constants.ExtractionSuccess, res.Status)
	require.NotNil(t, res.Agreement)
	assert.Equal(t, "2023-10-15", res.Agreement.AgreementDate)
	assert.Len(t, res.Agreement.Parties, 2)
}

func TestClient_ExtractBareAgreementForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validAgreementJSON))
	})

	res, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.NoError(t, err)
	assert.Equal(t, constants.ExtractionSuccess, res.Status)
	require.NotNil(t, res.Agreement)
	assert.Equal(t, "State of New York", res.Agreement.GoverningLaw)
}

func TestClient_ExtractIrrelevantDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "irrelevant_document", "message": "not a credit agreement"}`))
	})

	res, err := client.Extract(context.Background(), extract.Request{Text: "grocery receipt"})
	require.NoError(t, err)
	assert.Equal(t, constants.ExtractionIrrelevant, res.Status)
	assert.Nil(t, res.Agreement)
	assert.Equal(t, "not a credit agreement", res.Message)
}

func TestClient_ExtractDowngradesIncompleteSuccess(t *testing.T) {
	// Status claims success but governing_law is missing; the effective status
	// must drop to partial_data_missing.
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"extraction_status": "success",
			"agreement_date": "2023-10-15",
			"parties": [{"name": "ACME INDUSTRIES INC.", "role": "Borrower"}],
			"facilities": [{
				"facility_name": "Term Loan Facility",
				"commitment_amount": {"amount": 500000000, "currency": "USD"},
				"maturity_date": "2028-10-15"
			}]
		}`))
	})

	res, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.NoError(t, err)
	assert.Equal(t, constants.ExtractionPartial, res.Status)
}

func TestClient_ExtractEmptyText(t *testing.T) {
	var called atomic.Bool
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		called.Store(true)
	})

	_, err := client.Extract(context.Background(), extract.Request{Text: "   \n"})
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.False(t, called.Load(), "empty text must be rejected before any request is sent")
}

func TestClient_ExtractServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestClient_ExtractMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	})

	_, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestClient_ExtractDomainValidationFailure(t *testing.T) {
	// Maturity on the agreement date itself violates the ordering rule.
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"extraction_status": "success",
			"agreement_date": "2023-10-15",
			"parties": [{"name": "ACME INDUSTRIES INC.", "role": "Borrower"}],
			"facilities": [{
				"facility_name": "Term Loan Facility",
				"commitment_amount": {"amount": 500000000, "currency": "USD"},
				"maturity_date": "2023-10-15"
			}],
			"governing_law": "State of New York"
		}`))
	})

	_, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestClient_ForceMapReduceFromConfig(t *testing.T) {
	var gotForce atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ForceMapReduce bool `json:"force_map_reduce"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotForce.Store(body.ForceMapReduce)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validAgreementJSON))
	}))
	t.Cleanup(srv.Close)

	client := extract.NewClient(extract.Config{BaseURL: srv.URL, ForceMapReduce: true}, quietLogger())
	_, err := client.Extract(context.Background(), extract.Request{Text: "text"})
	require.NoError(t, err)
	assert.True(t, gotForce.Load())
}
