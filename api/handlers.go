/*
handlers.go - HTTP API handlers for the barangay services engine

PURPOSE:
  Exposes the dispensing engine, tracked-entity lifecycle, and treasurer
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Catalog and submission (kind = medicine | firstaid | ...):
    GET    /api/{kind}/catalog          Selectable stock, normalized and filtered
    POST   /api/{kind}/preview          Summary + submit-gate verdict for a draft
    POST   /api/{kind}/requests         Composite submission (all lines, one call)

  Tracked entities:
    GET    /api/complaints              List complaints
    GET    /api/complaints/{id}         Get one complaint
    PATCH  /api/complaints/{id}/status  Guarded status transition
    (same shape for /api/clearances and /api/summons)

  Treasurer:
    POST   /api/clearances/{id}/receipts  Collect payment, issue receipt
    GET    /api/receipts                  List issued receipts

  History:
    GET    /api/subjects/{id}/records   Consumption history for a subject

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, disallowed transitions, missing reason
  - 404: Entity not found
  - 409: Conflict (duplicate submission, transition in flight, not payable)
  - 422: Submit gate violations (draft not submittable)
  - 207: Composite submission aborted partway; body carries per-line results
  - 500: Internal errors

CACHING:
  Read endpoints go through a TTL query cache. Mutations invalidate the
  affected keys rather than writing results into the cache, so a failed
  store write can never leave a phantom update visible.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/civica/barangay-engine/dispense"
	"github.com/civica/barangay-engine/factory"
	"github.com/civica/barangay-engine/lifecycle"
	"github.com/civica/barangay-engine/store/sqlite"
	"github.com/civica/barangay-engine/treasurer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	FlowFactory  *factory.FlowFactory
	Orchestrator *dispense.Orchestrator
	Controller   *lifecycle.Controller
	Treasurer    *treasurer.Treasurer
	Cache        *lifecycle.QueryCache

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewHandler wires a handler around the given store.
func NewHandler(store *sqlite.Store) *Handler {
	cache := lifecycle.NewQueryCache(30 * time.Second)
	return &Handler{
		Store:        store,
		FlowFactory:  factory.NewFlowFactory(),
		Orchestrator: &dispense.Orchestrator{Store: store},
		Controller:   lifecycle.NewController(store, cache),
		Treasurer: &treasurer.Treasurer{
			Store: store,
			Rates: &treasurer.RateService{Source: store},
		},
		Cache: cache,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// resolveFlow maps the URL kind (plus optional explicit flow name) to a
// registered flow configuration.
func (h *Handler) resolveFlow(kindID, flowName string) (dispense.FlowConfig, error) {
	if flowName == "" {
		flowName = kindID
	}
	flow, ok := dispense.LookupFlow(flowName)
	if !ok {
		return dispense.FlowConfig{}, fmt.Errorf("%w: %s", dispense.ErrFlowNotFound, flowName)
	}
	if flow.Kind.KindID() != kindID {
		return dispense.FlowConfig{}, fmt.Errorf("flow %s does not serve kind %s", flowName, kindID)
	}
	return flow, nil
}

// loadCatalog fetches, normalizes, and caches the selectable catalog for
// a kind.
func (h *Handler) loadCatalog(r *http.Request, kind dispense.ItemKind) (dispense.Catalog, error) {
	v, err := h.Cache.Fetch(lifecycle.StockKey(kind.KindID()), func() (any, error) {
		loader := &dispense.CatalogLoader{Source: h.Store, Now: h.now}
		return loader.Load(r.Context(), kind)
	})
	if err != nil {
		return dispense.Catalog{}, err
	}
	return v.(dispense.Catalog), nil
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// GetCatalog returns the selectable stock for a kind.
// GET /api/{kind}/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	kindID := chi.URLParam(r, "kind")
	kind := dispense.LookupKind(kindID)
	if kind == nil {
		writeError(w, http.StatusNotFound, "Unknown item kind", nil)
		return
	}

	catalog, err := h.loadCatalog(r, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	items := catalog.Items()
	dtos := make([]CatalogItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toCatalogItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func toCatalogItemDTO(it dispense.CatalogItem) CatalogItemDTO {
	dto := CatalogItemDTO{
		ID:         string(it.ID),
		Name:       it.Name,
		Unit:       it.Unit,
		Category:   it.Category,
		Available:  it.Available,
		Restricted: it.Restricted,
	}
	if it.Expiry != nil {
		dto.Expiry = it.Expiry.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// SUBMISSION HANDLERS
// =============================================================================

// buildDraft converts the wire payload into a domain draft via the
// flow's reducer, so the same upsert/zero-handling rules apply whether
// lines arrive one by one or as a batch.
func buildDraft(flow dispense.FlowConfig, req SubmitRequestDTO) dispense.Draft {
	draft := dispense.Draft{
		SubmissionID: dispense.SubmissionID(req.SubmissionID),
		Kind:         flow.Kind,
		SubjectID:    dispense.SubjectID(req.SubjectID),
		StaffID:      dispense.StaffID(req.StaffID),
		Signature:    req.Signature,
		Attachments:  req.Attachments,
	}
	for _, ln := range req.Lines {
		draft = draft.SetLine(flow, dispense.ItemID(ln.ItemID), ln.Quantity, ln.Reason)
	}
	return draft
}

// PreviewRequest returns the confirmation summary and submit-gate verdict
// for a draft without writing anything.
// POST /api/{kind}/preview
func (h *Handler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	kindID := chi.URLParam(r, "kind")

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	flow, err := h.resolveFlow(kindID, req.Flow)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown flow", err)
		return
	}

	catalog, err := h.loadCatalog(r, flow.Kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	draft := buildDraft(flow, req)
	summary := dispense.Project(draft, catalog)
	violations := draft.GateCheck(catalog, flow)

	resp := PreviewResponseDTO{
		SubjectID:     string(summary.SubjectID),
		Rows:          make([]PreviewRowDTO, len(summary.Rows)),
		TotalQuantity: summary.TotalQuantity,
		CanSubmit:     len(violations) == 0,
	}
	for i, row := range summary.Rows {
		resp.Rows[i] = PreviewRowDTO{
			ItemID:   string(row.ItemID),
			Name:     row.Name,
			Quantity: row.Quantity,
			Unit:     row.Unit,
			Reason:   row.Reason,
			Known:    row.Known,
		}
	}
	for _, v := range violations {
		resp.Violations = append(resp.Violations, GateViolationDTO{
			Code:    v.Code,
			ItemID:  string(v.ItemID),
			Message: v.Message,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitRequest processes a composite submission: every drafted line in
// one call, sequentially, server-side.
// POST /api/{kind}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	kindID := chi.URLParam(r, "kind")

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	flow, err := h.resolveFlow(kindID, req.Flow)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown flow", err)
		return
	}

	catalog, err := h.loadCatalog(r, flow.Kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}

	draft := buildDraft(flow, req)
	if draft.SubmissionID == "" {
		draft.SubmissionID = dispense.SubmissionID(uuid.NewString())
	}

	// The gate runs server-side too; a client that skipped preview gets
	// the same verdict here.
	if violations := draft.GateCheck(catalog, flow); len(violations) > 0 {
		dtos := make([]GateViolationDTO, len(violations))
		for i, v := range violations {
			dtos[i] = GateViolationDTO{Code: v.Code, ItemID: string(v.ItemID), Message: v.Message}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "Draft is not submittable",
			"violations": dtos,
		})
		return
	}

	results, submitErr := h.Orchestrator.Submit(r.Context(), flow, draft)

	// Stock changed (or may have); drop the cached catalog either way.
	h.Cache.Invalidate(lifecycle.StockKey(flow.Kind.KindID()))

	if submitErr != nil && len(results) == 0 {
		// Rejected before any line ran.
		if errors.Is(submitErr, dispense.ErrDuplicateSubmission) {
			submissionsTotal.WithLabelValues(kindID, "duplicate").Inc()
			writeError(w, http.StatusConflict, "Submission already processed", submitErr)
			return
		}
		writeError(w, http.StatusInternalServerError, "Submission failed", submitErr)
		return
	}

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
			linesDispensedTotal.WithLabelValues(kindID).Inc()
		}
	}

	outcome := "completed"
	switch {
	case submitErr != nil:
		outcome = "aborted"
	case succeeded == 0:
		// Every line failed structural validation; nothing was dispensed.
		outcome = "rejected"
	}
	submissionsTotal.WithLabelValues(kindID, outcome).Inc()

	resp := SubmitResponseDTO{
		SubmissionID: string(draft.SubmissionID),
		Results:      make([]LineResultDTO, len(results)),
		Aborted:      submitErr != nil,
	}
	if submitErr != nil {
		resp.AbortReason = submitErr.Error()
	}
	for i, res := range results {
		dto := LineResultDTO{
			ItemID:  string(res.ItemID),
			Success: res.Success,
			Error:   res.Error,
		}
		if res.Record != nil {
			dto.Quantity = res.Record.QuantityLabel
			dto.RecordID = res.Record.ID
		}
		resp.Results[i] = dto
	}

	status := http.StatusCreated
	if submitErr != nil || succeeded == 0 {
		// Partial (or empty) outcome: aborted mid-batch, or no line
		// survived structural validation. 201 would overstate either.
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

// GetSubjectRecords returns a subject's consumption history.
// GET /api/subjects/{id}/records
func (h *Handler) GetSubjectRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.Store.ConsumptionBySubject(r.Context(), dispense.SubjectID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load records", err)
		return
	}

	dtos := make([]ConsumptionRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = ConsumptionRecordDTO{
			ID:            rec.ID,
			SubmissionID:  string(rec.SubmissionID),
			SubjectID:     string(rec.SubjectID),
			ItemID:        string(rec.ItemID),
			ItemName:      rec.ItemName,
			QuantityLabel: rec.QuantityLabel,
			Reason:        rec.Reason,
			StaffID:       string(rec.StaffID),
			CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRACKED ENTITY HANDLERS
// =============================================================================

// ListComplaints returns all complaints, newest first.
// GET /api/complaints
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	v, err := h.Cache.Fetch(lifecycle.ListKey(lifecycle.KindComplaint), func() (any, error) {
		return h.Store.ListComplaints(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list complaints", err)
		return
	}

	complaints := v.([]sqlite.Complaint)
	dtos := make([]ComplaintDTO, len(complaints))
	for i, c := range complaints {
		dtos[i] = toComplaintDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetComplaint returns a single complaint.
// GET /api/complaints/{id}
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetComplaint(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get complaint", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Complaint not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toComplaintDTO(*c))
}

// TransitionComplaint applies a guarded status change to a complaint.
// PATCH /api/complaints/{id}/status
func (h *Handler) TransitionComplaint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetComplaint(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get complaint", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Complaint not found", nil)
		return
	}
	h.performTransition(w, r, *c)
}

func toComplaintDTO(c sqlite.Complaint) ComplaintDTO {
	return ComplaintDTO{
		ID:              c.ID,
		Complainant:     c.Complainant,
		Accused:         c.Accused,
		Description:     c.Description,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

// ListClearances returns all clearance requests, newest first.
// GET /api/clearances
func (h *Handler) ListClearances(w http.ResponseWriter, r *http.Request) {
	v, err := h.Cache.Fetch(lifecycle.ListKey(lifecycle.KindClearance), func() (any, error) {
		return h.Store.ListClearances(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clearances", err)
		return
	}

	clearances := v.([]sqlite.Clearance)
	dtos := make([]ClearanceDTO, len(clearances))
	for i, c := range clearances {
		dtos[i] = toClearanceDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetClearance returns a single clearance request.
// GET /api/clearances/{id}
func (h *Handler) GetClearance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetClearance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get clearance", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Clearance not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClearanceDTO(*c))
}

// TransitionClearance applies a guarded status change to a clearance.
// Note that Paid is unreachable here: the only path to Paid is receipt
// issuance.
// PATCH /api/clearances/{id}/status
func (h *Handler) TransitionClearance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetClearance(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get clearance", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Clearance not found", nil)
		return
	}
	h.performTransition(w, r, *c)
}

func toClearanceDTO(c sqlite.Clearance) ClearanceDTO {
	return ClearanceDTO{
		ID:              c.ID,
		Resident:        c.Resident,
		Purpose:         c.Purpose,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       c.UpdatedAt.Format(time.RFC3339),
	}
}

// ListSummons returns all summon cases, newest first.
// GET /api/summons
func (h *Handler) ListSummons(w http.ResponseWriter, r *http.Request) {
	v, err := h.Cache.Fetch(lifecycle.ListKey(lifecycle.KindSummon), func() (any, error) {
		return h.Store.ListSummons(r.Context())
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list summons", err)
		return
	}

	summons := v.([]sqlite.Summon)
	dtos := make([]SummonDTO, len(summons))
	for i, s := range summons {
		dtos[i] = toSummonDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSummon returns a single summon case.
// GET /api/summons/{id}
func (h *Handler) GetSummon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.Store.GetSummon(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get summon", err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "Summon not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSummonDTO(*s))
}

// TransitionSummon applies a guarded status change to a summon case.
// PATCH /api/summons/{id}/status
func (h *Handler) TransitionSummon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.Store.GetSummon(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get summon", err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "Summon not found", nil)
		return
	}
	h.performTransition(w, r, *s)
}

func toSummonDTO(s sqlite.Summon) SummonDTO {
	dto := SummonDTO{
		ID:          s.ID,
		CaseNumber:  s.CaseNumber,
		Complainant: s.Complainant,
		Respondent:  s.Respondent,
		Status:      string(s.Status),
		Reason:      s.Reason,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.HearingAt != nil {
		dto.HearingAt = s.HearingAt.Format(time.RFC3339)
	}
	return dto
}

// performTransition runs the shared guard/patch sequence and maps the
// lifecycle errors to HTTP statuses.
func (h *Handler) performTransition(w http.ResponseWriter, r *http.Request, entity lifecycle.Tracked) {
	var req TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "Missing target status", nil)
		return
	}

	target := lifecycle.Status(req.Status)
	err := h.Controller.PerformTransition(r.Context(), entity, target, req.Reason)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"id":     entity.TrackedID(),
			"status": string(target),
		})
	case errors.Is(err, lifecycle.ErrTransitionNotAllowed):
		writeError(w, http.StatusBadRequest, "Transition not allowed", err)
	case errors.Is(err, lifecycle.ErrReasonRequired):
		writeError(w, http.StatusBadRequest, "A reason is required for this transition", err)
	case errors.Is(err, lifecycle.ErrTransitionInFlight):
		writeError(w, http.StatusConflict, "A transition for this entity is already in progress", err)
	case errors.Is(err, lifecycle.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, "Entity not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Transition failed", err)
	}
}

// =============================================================================
// TREASURER HANDLERS
// =============================================================================

// IssueReceipt collects payment for a clearance: computes the service
// charge, persists a sequential receipt, and marks the clearance Paid,
// all in one transaction.
// POST /api/clearances/{id}/receipts
func (h *Handler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	clearanceID := chi.URLParam(r, "id")

	var req IssueReceiptRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	base, err := decimal.NewFromString(req.Base)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base amount", err)
		return
	}

	receipt, err := h.Treasurer.IssueReceipt(r.Context(), clearanceID, req.Payer, req.FeeKind, base, req.IssuedBy)
	switch {
	case err == nil:
		h.Cache.Invalidate(
			lifecycle.ListKey(lifecycle.KindClearance),
			lifecycle.DetailKey(lifecycle.KindClearance, clearanceID),
		)
		receiptsIssuedTotal.Inc()
		writeJSON(w, http.StatusCreated, toReceiptDTO(receipt))
	case errors.Is(err, treasurer.ErrClearanceNotPayable):
		writeError(w, http.StatusConflict, "Clearance is not payable", err)
	case errors.Is(err, treasurer.ErrRateNotFound):
		writeError(w, http.StatusBadRequest, "No service charge rate configured", err)
	case errors.Is(err, treasurer.ErrNonPositiveAmount):
		writeError(w, http.StatusBadRequest, "Base amount must be positive", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to issue receipt", err)
	}
}

// ListReceipts returns issued receipts, newest first.
// GET /api/receipts
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.Store.ListReceipts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list receipts", err)
		return
	}

	dtos := make([]ReceiptDTO, len(receipts))
	for i, rec := range receipts {
		dtos[i] = toReceiptDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func toReceiptDTO(rec treasurer.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:          rec.ID,
		Number:      rec.Number,
		Year:        rec.Year,
		ClearanceID: rec.ClearanceID,
		Payer:       rec.Payer,
		FeeKind:     rec.FeeKind,
		Base:        rec.Base.StringFixed(2),
		ChargeRate:  rec.ChargeRate.String(),
		Charge:      rec.Charge.StringFixed(2),
		Total:       rec.Total.StringFixed(2),
		IssuedBy:    rec.IssuedBy,
		IssuedAt:    rec.IssuedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// MISC HANDLERS
// =============================================================================

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListFlows returns the registered flow configurations.
// GET /api/flows
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows := dispense.ListFlows()
	out := make([]map[string]any, len(flows))
	for i, f := range flows {
		out[i] = map[string]any{
			"name":                   f.Name,
			"kind":                   f.Kind.KindID(),
			"allow_zero_quantity":    f.AllowZeroQuantity,
			"requires_signature":     f.RequiresSignature,
			"requires_parent_record": f.RequiresParentRecord,
			"action_label":           f.ActionLabel,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
