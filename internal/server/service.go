// Package server is the HTTP boundary to the external presentation layer.
// Handlers stay thin: every workflow invariant lives in the controller, and
// this package only translates requests, responses, and error codes.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/common"
	"github.com/FinTechTonic/creditnexus/internal/export"
	"github.com/FinTechTonic/creditnexus/internal/review"
	"github.com/FinTechTonic/creditnexus/internal/workflow"
)

// Service wires the workflow controller and the optional review/export
// services behind HTTP JSON endpoints.
type Service struct {
	controller *workflow.Controller
	reviews    *review.Service
	exports    *export.Service
	logger     *slog.Logger
}

func NewService(controller *workflow.Controller, reviews *review.Service, exports *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{controller: controller, reviews: reviews, exports: exports, logger: logger}
}

// Routes returns the API mux.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/documents", s.handleLoad)
	mux.HandleFunc("POST /api/documents/extract", s.handleExtract)
	mux.HandleFunc("POST /api/documents/approve", s.handleApprove)
	mux.HandleFunc("POST /api/documents/reject", s.handleReject)
	mux.HandleFunc("GET /api/documents/state", s.handleState)
	mux.HandleFunc("GET /api/reviews", s.handleListReviews)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
	return mux
}

type loadRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type stateResponse struct {
	State           string          `json:"state"`
	DocumentID      string          `json:"doc_id,omitempty"`
	Filename        string          `json:"filename,omitempty"`
	TextLen         int             `json:"text_len,omitempty"`
	Status          string          `json:"extraction_status,omitempty"`
	Agreement       json.RawMessage `json:"agreement,omitempty"`
	Message         string          `json:"message,omitempty"`
	Error           string          `json:"error,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	Disseminated    bool            `json:"disseminated"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "creditnexus"})
}

func (s *Service) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, common.WrapError(common.ErrInvalidInput, "decode request body"))
		return
	}

	if _, err := s.controller.Load(r.Context(), req.Filename, req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotResponse())
}

func (s *Service) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.RequestExtraction(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.snapshotResponse())
}

func (s *Service) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if reviewer := r.Header.Get("X-Reviewed-By"); reviewer != "" {
		ctx = common.WithReviewer(ctx, reviewer)
	}

	err := s.controller.Approve(ctx)
	resp := s.snapshotResponse()
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, errorCode(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, common.WrapError(common.ErrInvalidInput, "decode request body"))
		return
	}

	ctx := r.Context()
	if reviewer := r.Header.Get("X-Reviewed-By"); reviewer != "" {
		ctx = common.WithReviewer(ctx, reviewer)
	}

	if err := s.controller.Reject(ctx, req.Reason); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshotResponse())
}

func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotResponse())
}

func (s *Service) handleListReviews(w http.ResponseWriter, r *http.Request) {
	if s.reviews == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "review store not configured"})
		return
	}
	status, err := parseReviewStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rows, err := s.reviews.ListReviews(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exports == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "export not configured"})
		return
	}
	status, err := parseReviewStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := s.exports.ExportReviewsXLSX(r.Context(), status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="creditnexus-reviews.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Service) snapshotResponse() stateResponse {
	snap := s.controller.Snapshot()

	resp := stateResponse{
		State:           string(snap.State),
		Filename:        snap.Filename,
		TextLen:         snap.TextLen,
		Status:          string(snap.Status),
		Message:         snap.Message,
		Error:           snap.Err,
		RejectionReason: snap.RejectionReason,
		Disseminated:    snap.Disseminated,
	}
	if snap.DocumentID != uuid.Nil {
		resp.DocumentID = snap.DocumentID.String()
	}
	if snap.Agreement != nil {
		if data, err := json.Marshal(snap.Agreement); err == nil {
			resp.Agreement = data
		}
	}
	return resp
}

func parseReviewStatus(raw string) (*constants.ReviewStatus, error) {
	if raw == "" {
		return nil, nil
	}
	switch st := constants.ReviewStatus(raw); st {
	case constants.ReviewPending, constants.ReviewApproved, constants.ReviewRejected:
		return &st, nil
	default:
		return nil, common.WrapError(common.ErrInvalidInput, "status must be pending, approved, or rejected")
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("server.request_failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, common.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrPublishRejected), errors.Is(err, common.ErrExtractionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
