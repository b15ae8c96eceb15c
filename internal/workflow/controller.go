// Package workflow is the state machine governing a single document's life
// from load through extraction, review, and terminal disposition. The
// controller owns the one live document slot and is the sole caller allowed to
// publish onto the interop bus.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/cdm"
	"github.com/FinTechTonic/creditnexus/internal/common"
	"github.com/FinTechTonic/creditnexus/internal/extract"
	"github.com/FinTechTonic/creditnexus/internal/interop"
)

// Publisher is the slice of the interop adapter the controller needs.
type Publisher interface {
	Publish(ctx context.Context, payload *interop.LoanContext) error
}

// Recorder receives staging and disposition events for the review audit
// trail. It is optional: the controller works identically with a nil recorder,
// and recorder failures are logged, never allowed to block a transition.
type Recorder interface {
	StageExtraction(ctx context.Context, docID uuid.UUID, filename, originalText string, agreement *cdm.CreditAgreement) error
	RecordDecision(ctx context.Context, docID uuid.UUID, status constants.ReviewStatus, reason, reviewedBy string) error
}

// document is the arena-of-one record: replaced wholesale on each Load so
// discard-on-supersede stays trivially correct.
type document struct {
	id       uuid.UUID
	filename string
	text     string
	loadedAt time.Time
}

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	State           State
	DocumentID      uuid.UUID
	Filename        string
	TextLen         int
	Agreement       *cdm.CreditAgreement
	Status          constants.ExtractionStatus
	Message         string
	Err             string
	RejectionReason string
	Disseminated    bool
}

// Controller drives one document through the review workflow.
type Controller struct {
	extractor extract.Extractor
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger

	mu              sync.Mutex
	state           State
	doc             *document
	generation      uint64
	agreement       *cdm.CreditAgreement
	status          constants.ExtractionStatus
	message         string
	lastErr         error
	rejectionReason string
	disseminated    bool
}

func NewController(extractor extract.Extractor, publisher Publisher, recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		extractor: extractor,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		state:     StateIdle,
	}
}

// Load places a new document in the slot, discarding the previous document,
// its agreement, and any in-flight extraction result. Legal from every state.
func (c *Controller) Load(ctx context.Context, filename, text string) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	c.generation++
	c.doc = &document{
		id:       uuid.New(),
		filename: filename,
		text:     text,
		loadedAt: time.Now().UTC(),
	}
	c.agreement = nil
	c.status = constants.ExtractionUnset
	c.message = ""
	c.lastErr = nil
	c.rejectionReason = ""
	c.disseminated = false
	c.state = StateDocumentLoaded

	c.logger.Info("workflow.load",
		"doc_id", c.doc.id,
		"filename", filename,
		"text_len", len(text),
		"previous_state", string(prev),
		"generation", c.generation,
	)
	if prev == StateExtracting {
		c.logger.Warn("workflow.load.superseded_inflight", "doc_id", c.doc.id, "generation", c.generation)
	}
	return c.doc.id, nil
}

// RequestExtraction sends the loaded text to the extraction endpoint. The call
// is asynchronous: the controller transitions to Extracting immediately and
// the result lands via a completion that re-checks the document generation, so
// a result for a superseded document is dropped, not applied.
func (c *Controller) RequestExtraction(ctx context.Context) error {
	c.mu.Lock()

	if !ValidTransition(c.state, StateExtracting) || c.state != StateDocumentLoaded {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: request extraction in state %s", common.ErrPrecondition, state)
	}
	if c.doc == nil || strings.TrimSpace(c.doc.text) == "" {
		c.mu.Unlock()
		return fmt.Errorf("%w: request extraction with empty text", common.ErrPrecondition)
	}

	gen := c.generation
	doc := c.doc
	c.state = StateExtracting
	c.mu.Unlock()

	c.logger.Info("workflow.extract.start", "doc_id", doc.id, "generation", gen)

	// Detach from the caller's cancellation: superseding via a new Load is the
	// only cancellation mechanism, and it is logical, not a transport abort.
	bg := context.WithoutCancel(ctx)
	go func() {
		res, err := c.extractor.Extract(bg, extract.Request{Text: doc.text})
		c.completeExtraction(bg, gen, doc, res, err)
	}()
	return nil
}

func (c *Controller) completeExtraction(ctx context.Context, gen uint64, doc *document, res *extract.Result, err error) {
	c.mu.Lock()

	if gen != c.generation || c.state != StateExtracting {
		c.mu.Unlock()
		c.logger.Warn("workflow.extract.stale_result_dropped",
			"doc_id", doc.id,
			"result_generation", gen,
			"current_generation", c.generation,
		)
		return
	}

	if err != nil {
		// Surface the failure; never substitute placeholder data.
		c.state = StateFailed
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Error("workflow.extract.failed", "doc_id", doc.id, "error", err)
		return
	}

	c.state = StateExtracted
	c.agreement = res.Agreement
	c.status = res.Status
	c.message = res.Message
	c.mu.Unlock()

	c.logger.Info("workflow.extract.done", "doc_id", doc.id, "status", string(res.Status))

	if c.recorder != nil && res.Agreement != nil {
		if rerr := c.recorder.StageExtraction(ctx, doc.id, doc.filename, doc.text, res.Agreement); rerr != nil {
			c.logger.Error("workflow.stage.record_failed", "doc_id", doc.id, "error", rerr)
		}
	}
}

// Approve publishes the extracted agreement onto the bus. Valid only in
// Extracted with extraction_status success; anything else is a precondition
// violation and nothing is published. A transport rejection leaves the
// workflow Approved but not disseminated, with the error surfaced.
func (c *Controller) Approve(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateExtracted || c.status != constants.ExtractionSuccess || c.agreement == nil {
		return fmt.Errorf("%w: approve in state %s with status %q", common.ErrPrecondition, c.state, c.status)
	}

	doc := c.doc
	payload := interop.ToWireContext(c.agreement)
	err := c.publisher.Publish(ctx, payload)

	switch {
	case err == nil:
		c.state = StateApproved
		c.disseminated = true
		c.logger.Info("workflow.approve.published", "doc_id", doc.id)
	case errors.Is(err, common.ErrValidationFailed):
		// The payload never left the process; the agreement stays reviewable.
		c.lastErr = err
		c.logger.Error("workflow.approve.validation_failed", "doc_id", doc.id, "error", err)
		return err
	default:
		c.state = StateApproved
		c.disseminated = false
		c.lastErr = err
		c.logger.Error("workflow.approve.publish_rejected", "doc_id", doc.id, "error", err)
	}

	c.recordDecision(ctx, doc.id, constants.ReviewApproved, "")
	return err
}

// Reject records a terminal rejection. Valid from Extracted and Failed; no bus
// call is made.
func (c *Controller) Reject(ctx context.Context, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !ValidTransition(c.state, StateRejected) {
		return fmt.Errorf("%w: reject in state %s", common.ErrPrecondition, c.state)
	}

	c.state = StateRejected
	c.rejectionReason = reason
	c.logger.Info("workflow.reject", "doc_id", c.doc.id, "reason", reason)

	c.recordDecision(ctx, c.doc.id, constants.ReviewRejected, reason)
	return nil
}

// recordDecision is called with c.mu held.
func (c *Controller) recordDecision(ctx context.Context, docID uuid.UUID, status constants.ReviewStatus, reason string) {
	if c.recorder == nil {
		return
	}
	reviewer := common.ReviewerFromContext(ctx)
	if err := c.recorder.RecordDecision(ctx, docID, status, reason, reviewer); err != nil {
		c.logger.Error("workflow.decision.record_failed", "doc_id", docID, "status", string(status), "error", err)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a read-only copy of the live slot for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:           c.state,
		Agreement:       c.agreement,
		Status:          c.status,
		Message:         c.message,
		RejectionReason: c.rejectionReason,
		Disseminated:    c.disseminated,
	}
	if c.doc != nil {
		s.DocumentID = c.doc.id
		s.Filename = c.doc.filename
		s.TextLen = len(c.doc.text)
	}
	if c.lastErr != nil {
		s.Err = c.lastErr.Error()
	}
	return s
}
