package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civica/barangay-engine/api"
	"github.com/civica/barangay-engine/store/sqlite"

	// Register the item kinds and request flows.
	_ "github.com/civica/barangay-engine/firstaid"
	_ "github.com/civica/barangay-engine/medicine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*sqlite.Store, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, sqlite.SeedDemo(context.Background(), store))
	return store, api.NewRouter(api.NewHandler(store))
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// =============================================================================
// HEALTH AND FLOWS
// =============================================================================

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListFlows(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/api/flows", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var flows []map[string]any
	decode(t, rec, &flows)

	names := map[string]bool{}
	for _, f := range flows {
		names[f["name"].(string)] = true
	}
	assert.True(t, names["medicine"])
	assert.True(t, names["firstaid"])
	assert.True(t, names["firstaid-strict"])
}

// =============================================================================
// CATALOG
// =============================================================================

func TestGetCatalog_FiltersIneligibleRows(t *testing.T) {
	// GIVEN: Seeded stock including an expired row and an empty row
	// WHEN: Fetching the medicine catalog
	// THEN: Only stocked, unexpired rows are offered

	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/api/medicine/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []api.CatalogItemDTO
	decode(t, rec, &items)

	ids := map[string]api.CatalogItemDTO{}
	for _, it := range items {
		ids[it.ID] = it
	}
	assert.Contains(t, ids, "med-paracetamol")
	assert.Contains(t, ids, "med-amoxicillin")
	assert.Contains(t, ids, "med-cough-syrup")
	assert.NotContains(t, ids, "med-expired")
	assert.NotContains(t, ids, "med-empty")

	assert.True(t, ids["med-amoxicillin"].Restricted)
	assert.Equal(t, 120, ids["med-paracetamol"].Available)
}

func TestGetCatalog_UnknownKind(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/api/livestock/catalog", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview_ReportsGateVerdict(t *testing.T) {
	_, router := newTestServer(t)

	// Medicine requires a signature; without one the draft previews fine
	// but cannot be submitted.
	req := api.SubmitRequestDTO{
		SubjectID: "pat-1",
		Lines:     []api.SubmitLineDTO{{ItemID: "med-paracetamol", Quantity: 2, Reason: "fever"}},
	}
	rec := do(t, router, http.MethodPost, "/api/medicine/preview", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.PreviewResponseDTO
	decode(t, rec, &resp)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Paracetamol 500mg", resp.Rows[0].Name)
	assert.Equal(t, "pcs", resp.Rows[0].Unit)
	assert.Equal(t, 2, resp.TotalQuantity)
	assert.False(t, resp.CanSubmit)

	codes := map[string]bool{}
	for _, v := range resp.Violations {
		codes[v.Code] = true
	}
	assert.True(t, codes["missing_signature"])

	// Supplying the signature clears the verdict.
	req.Signature = "data:image/png;base64,AAAA"
	rec = do(t, router, http.MethodPost, "/api/medicine/preview", req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = api.PreviewResponseDTO{}
	decode(t, rec, &resp)
	assert.True(t, resp.CanSubmit)
	assert.Empty(t, resp.Violations)
}

// =============================================================================
// COMPOSITE SUBMISSION
// =============================================================================

func TestSubmitRequest_AllLinesSucceed(t *testing.T) {
	// GIVEN: A submittable first-aid draft with two lines
	// WHEN: Submitting it
	// THEN: 201, both lines succeed, and the catalog reflects the deduction

	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubmissionID: "sub-100",
		SubjectID:    "case-7",
		StaffID:      "staff-1",
		Lines: []api.SubmitLineDTO{
			{ItemID: "fa-bandage", Quantity: 2, Reason: "sprain"},
			{ItemID: "fa-gauze", Quantity: 4},
		},
	}
	rec := do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.SubmitResponseDTO
	decode(t, rec, &resp)

	assert.Equal(t, "sub-100", resp.SubmissionID)
	assert.False(t, resp.Aborted)
	require.Len(t, resp.Results, 2)
	for _, res := range resp.Results {
		assert.True(t, res.Success)
		assert.NotEmpty(t, res.RecordID)
	}
	assert.Equal(t, "2 pcs", resp.Results[0].Quantity)

	// The cached catalog was invalidated by the mutation.
	rec = do(t, router, http.MethodGet, "/api/firstaid/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []api.CatalogItemDTO
	decode(t, rec, &items)
	for _, it := range items {
		if it.ID == "fa-bandage" {
			assert.Equal(t, 48, it.Available)
		}
	}
}

func TestSubmitRequest_GeneratesSubmissionID(t *testing.T) {
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubjectID: "case-7",
		Lines:     []api.SubmitLineDTO{{ItemID: "fa-gauze", Quantity: 1}},
	}
	rec := do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.SubmitResponseDTO
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.SubmissionID)
}

func TestSubmitRequest_GateViolations_Unprocessable(t *testing.T) {
	// Medicine without a signature fails the server-side gate.
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubjectID: "pat-1",
		Lines:     []api.SubmitLineDTO{{ItemID: "med-paracetamol", Quantity: 2}},
	}
	rec := do(t, router, http.MethodPost, "/api/medicine/requests", req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error      string                 `json:"error"`
		Violations []api.GateViolationDTO `json:"violations"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Violations)
}

func TestSubmitRequest_RestrictedItemNeedsAttachment(t *testing.T) {
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubjectID: "pat-1",
		Signature: "sig",
		Lines:     []api.SubmitLineDTO{{ItemID: "med-amoxicillin", Quantity: 3, Reason: "infection"}},
	}
	rec := do(t, router, http.MethodPost, "/api/medicine/requests", req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Violations []api.GateViolationDTO `json:"violations"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, "missing_attachment", resp.Violations[0].Code)

	// With the prescription attached it goes through.
	req.Attachments = []string{"prescription.jpg"}
	rec = do(t, router, http.MethodPost, "/api/medicine/requests", req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSubmitRequest_DuplicateSubmissionID_Conflict(t *testing.T) {
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubmissionID: "sub-retry",
		SubjectID:    "case-7",
		Lines:        []api.SubmitLineDTO{{ItemID: "fa-gauze", Quantity: 2}},
	}
	rec := do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// A network-level retry replays the same submission id.
	rec = do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The replay must not have deducted again.
	rec = do(t, router, http.MethodGet, "/api/firstaid/catalog", nil)
	var items []api.CatalogItemDTO
	decode(t, rec, &items)
	for _, it := range items {
		if it.ID == "fa-gauze" {
			assert.Equal(t, 198, it.Available)
		}
	}
}

func TestSubmitRequest_InsufficiencyAborts_MultiStatus(t *testing.T) {
	// GIVEN: A catalog cached before stock was drained out from under it
	// WHEN: Submitting two lines where the second now exceeds real stock
	// THEN: 207 with both attempted lines; the batch aborted at the second

	store, router := newTestServer(t)

	// Warm the catalog cache at full stock.
	rec := do(t, router, http.MethodGet, "/api/firstaid/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another actor drains the antiseptic below the draft's quantity.
	require.NoError(t, store.DeductStock(context.Background(), "fa-antiseptic", 20, time.Now()))

	req := api.SubmitRequestDTO{
		SubmissionID: "sub-race",
		SubjectID:    "case-8",
		Lines: []api.SubmitLineDTO{
			{ItemID: "fa-bandage", Quantity: 2},
			{ItemID: "fa-antiseptic", Quantity: 10},
			{ItemID: "fa-gauze", Quantity: 1},
		},
	}
	rec = do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())

	var resp api.SubmitResponseDTO
	decode(t, rec, &resp)

	assert.True(t, resp.Aborted)
	assert.NotEmpty(t, resp.AbortReason)
	require.Len(t, resp.Results, 2, "the third line was never attempted")
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)

	// The first line's deduction stands; the third item is untouched.
	item, err := store.GetItem(context.Background(), "fa-bandage")
	require.NoError(t, err)
	assert.Equal(t, 48, item.Available)
	item, err = store.GetItem(context.Background(), "fa-gauze")
	require.NoError(t, err)
	assert.Equal(t, 200, item.Available)
}

func TestSubmitRequest_NoLineSurvives_MultiStatus(t *testing.T) {
	// GIVEN: A draft whose only line is structurally unusable (no item id)
	//        under the zero-tolerant first-aid flow, so it slips past the
	//        gate but fails in the orchestrator
	// WHEN: Submitting it
	// THEN: 207, not 201 - nothing was dispensed, and the per-line result
	//       says why

	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubmissionID: "sub-hollow",
		SubjectID:    "case-7",
		Lines:        []api.SubmitLineDTO{{ItemID: "", Quantity: 0}},
	}
	rec := do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusMultiStatus, rec.Code, rec.Body.String())

	var resp api.SubmitResponseDTO
	decode(t, rec, &resp)
	assert.False(t, resp.Aborted)
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Success)
	assert.NotEmpty(t, resp.Results[0].Error)
}

func TestSubmitRequest_UnknownFlow(t *testing.T) {
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubjectID: "pat-1",
		Flow:      "firstaid", // wrong kind for the URL
		Lines:     []api.SubmitLineDTO{{ItemID: "med-paracetamol", Quantity: 1}},
	}
	rec := do(t, router, http.MethodPost, "/api/medicine/requests", req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SUBJECT HISTORY
// =============================================================================

func TestGetSubjectRecords(t *testing.T) {
	_, router := newTestServer(t)

	req := api.SubmitRequestDTO{
		SubmissionID: "sub-hist",
		SubjectID:    "case-9",
		Lines: []api.SubmitLineDTO{
			{ItemID: "fa-bandage", Quantity: 1},
			{ItemID: "fa-gauze", Quantity: 3},
		},
	}
	rec := do(t, router, http.MethodPost, "/api/firstaid/requests", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/subjects/case-9/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []api.ConsumptionRecordDTO
	decode(t, rec, &records)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "sub-hist", r.SubmissionID)
		assert.Equal(t, "case-9", r.SubjectID)
	}
}

// =============================================================================
// TRACKED ENTITY LIFECYCLE
// =============================================================================

func TestComplaintTransitions(t *testing.T) {
	_, router := newTestServer(t)

	// Pending -> Accepted is allowed.
	rec := do(t, router, http.MethodPatch, "/api/complaints/cmp-001/status",
		api.TransitionRequestDTO{Status: "Accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/complaints/cmp-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var c api.ComplaintDTO
	decode(t, rec, &c)
	assert.Equal(t, "Accepted", c.Status)

	// Accepted -> Pending is not in the guard table.
	rec = do(t, router, http.MethodPatch, "/api/complaints/cmp-001/status",
		api.TransitionRequestDTO{Status: "Pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplaintRejection_RequiresReason(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPatch, "/api/complaints/cmp-002/status",
		api.TransitionRequestDTO{Status: "Rejected"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/complaints/cmp-002/status",
		api.TransitionRequestDTO{Status: "Rejected", Reason: "outside jurisdiction"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/complaints/cmp-002", nil)
	var c api.ComplaintDTO
	decode(t, rec, &c)
	assert.Equal(t, "Rejected", c.Status)
	assert.Equal(t, "outside jurisdiction", c.RejectionReason)
}

func TestTransition_UnknownEntity(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodPatch, "/api/complaints/ghost/status",
		api.TransitionRequestDTO{Status: "Accepted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearance_PaidUnreachableViaStatusPatch(t *testing.T) {
	// Paid is only reachable through receipt issuance; the status endpoint
	// must refuse it.
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodPatch, "/api/clearances/clr-001/status",
		api.TransitionRequestDTO{Status: "Paid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummonScheduling(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPatch, "/api/summons/smn-001/status",
		api.TransitionRequestDTO{Status: "Scheduled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Escalation needs a reason.
	rec = do(t, router, http.MethodPatch, "/api/summons/smn-001/status",
		api.TransitionRequestDTO{Status: "Escalated"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/summons/smn-001/status",
		api.TransitionRequestDTO{Status: "Escalated", Reason: "no settlement after three hearings"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/summons/smn-001", nil)
	var s api.SummonDTO
	decode(t, rec, &s)
	assert.Equal(t, "Escalated", s.Status)
	assert.Equal(t, "no settlement after three hearings", s.Reason)
}

func TestListComplaints_Cached(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/complaints", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []api.ComplaintDTO
	decode(t, rec, &list)
	assert.Len(t, list, 2)

	// A transition invalidates the cached list; the next read sees it.
	rec = do(t, router, http.MethodPatch, "/api/complaints/cmp-001/status",
		api.TransitionRequestDTO{Status: "Accepted"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/complaints", nil)
	decode(t, rec, &list)
	statuses := map[string]string{}
	for _, c := range list {
		statuses[c.ID] = c.Status
	}
	assert.Equal(t, "Accepted", statuses["cmp-001"])
}

// =============================================================================
// TREASURER
// =============================================================================

func TestIssueReceipt(t *testing.T) {
	// GIVEN: A pending clearance and a 2% clearance rate
	// WHEN: Collecting a 150.00 payment
	// THEN: Receipt 1 of the year with a 3.00 charge; the clearance is Paid

	_, router := newTestServer(t)

	req := api.IssueReceiptRequestDTO{
		Payer: "Maria Santos", FeeKind: "clearance", Base: "150.00", IssuedBy: "treasurer-1",
	}
	rec := do(t, router, http.MethodPost, "/api/clearances/clr-001/receipts", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var receipt api.ReceiptDTO
	decode(t, rec, &receipt)
	assert.Equal(t, 1, receipt.Number)
	assert.Equal(t, time.Now().Year(), receipt.Year)
	assert.Equal(t, "150.00", receipt.Base)
	assert.Equal(t, "3.00", receipt.Charge)
	assert.Equal(t, "153.00", receipt.Total)
	assert.Equal(t, "clr-001", receipt.ClearanceID)

	rec = do(t, router, http.MethodGet, "/api/clearances/clr-001", nil)
	var c api.ClearanceDTO
	decode(t, rec, &c)
	assert.Equal(t, "Paid", c.Status)

	// Paying again conflicts.
	rec = do(t, router, http.MethodPost, "/api/clearances/clr-001/receipts", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestIssueReceipt_Validation(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/clearances/clr-002/receipts",
		api.IssueReceiptRequestDTO{Payer: "Jose", FeeKind: "clearance", Base: "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/clearances/clr-002/receipts",
		api.IssueReceiptRequestDTO{Payer: "Jose", FeeKind: "notarization", Base: "50.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/clearances/clr-002/receipts",
		api.IssueReceiptRequestDTO{Payer: "Jose", FeeKind: "clearance", Base: "-5.00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// None of the failures may have marked the clearance paid.
	rec = do(t, router, http.MethodGet, "/api/clearances/clr-002", nil)
	var c api.ClearanceDTO
	decode(t, rec, &c)
	assert.Equal(t, "Pending", c.Status)
}

func TestListReceipts(t *testing.T) {
	_, router := newTestServer(t)

	for _, id := range []string{"clr-001", "clr-002"} {
		rec := do(t, router, http.MethodPost, "/api/clearances/"+id+"/receipts",
			api.IssueReceiptRequestDTO{Payer: "P", FeeKind: "clearance", Base: "100.00"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, router, http.MethodGet, "/api/receipts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var receipts []api.ReceiptDTO
	decode(t, rec, &receipts)
	require.Len(t, receipts, 2)
	assert.Equal(t, 2, receipts[0].Number, "newest first")
	assert.Equal(t, 1, receipts[1].Number)
}
