/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged with clients. These are deliberately
  separate from domain types: the wire format can evolve (or stay stable)
  independently of internal structs, and time values are rendered as
  strings here instead of leaking time.Time encoding details.

CONVENTIONS:
  - snake_case JSON field names
  - Dates as "2006-01-02", timestamps as RFC3339
  - Quantities as already-labelled strings where the domain produces them
    ("2 pcs"), raw ints where the client still edits them

SEE ALSO:
  - handlers.go: Where these are populated and parsed
*/
package api

// ErrorResponse is the standard error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CATALOG
// =============================================================================

// CatalogItemDTO is one selectable stock row.
type CatalogItemDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Unit       string `json:"unit"`
	Category   string `json:"category,omitempty"`
	Available  int    `json:"available"`
	Restricted bool   `json:"restricted"`
	Expiry     string `json:"expiry,omitempty"` // "2006-01-02"
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitLineDTO is one requested line in a composite submission.
type SubmitLineDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason,omitempty"`
}

// SubmitRequestDTO is the composite submission payload. SubmissionID is
// the client's idempotency key; omitting it opts out of replay protection.
type SubmitRequestDTO struct {
	SubmissionID string          `json:"submission_id,omitempty"`
	SubjectID    string          `json:"subject_id"`
	StaffID      string          `json:"staff_id,omitempty"`
	Flow         string          `json:"flow,omitempty"` // defaults to the kind's flow
	Lines        []SubmitLineDTO `json:"lines"`
	Signature    string          `json:"signature,omitempty"`
	Attachments  []string        `json:"attachments,omitempty"`
}

// LineResultDTO is the outcome of one line.
type LineResultDTO struct {
	ItemID   string `json:"item_id"`
	Success  bool   `json:"success"`
	Quantity string `json:"quantity,omitempty"` // labelled, e.g. "2 pcs"
	RecordID string `json:"record_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubmitResponseDTO reports per-line outcomes. Aborted is true when a
// conflict or store failure stopped the batch before all lines ran.
type SubmitResponseDTO struct {
	SubmissionID string          `json:"submission_id"`
	Results      []LineResultDTO `json:"results"`
	Aborted      bool            `json:"aborted"`
	AbortReason  string          `json:"abort_reason,omitempty"`
}

// GateViolationDTO is one unmet submission precondition.
type GateViolationDTO struct {
	Code    string `json:"code"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

// PreviewResponseDTO is the confirmation summary for a draft.
type PreviewResponseDTO struct {
	SubjectID     string             `json:"subject_id"`
	Rows          []PreviewRowDTO    `json:"rows"`
	TotalQuantity int                `json:"total_quantity"`
	CanSubmit     bool               `json:"can_submit"`
	Violations    []GateViolationDTO `json:"violations,omitempty"`
}

// PreviewRowDTO is one summary line.
type PreviewRowDTO struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	Reason   string `json:"reason"`
	Known    bool   `json:"known"`
}

// =============================================================================
// TRACKED ENTITIES
// =============================================================================

// ComplaintDTO is a blotter/complaint record.
type ComplaintDTO struct {
	ID              string `json:"id"`
	Complainant     string `json:"complainant"`
	Accused         string `json:"accused,omitempty"`
	Description     string `json:"description,omitempty"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ClearanceDTO is a clearance/permit request.
type ClearanceDTO struct {
	ID              string `json:"id"`
	Resident        string `json:"resident"`
	Purpose         string `json:"purpose,omitempty"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// SummonDTO is a mediation case.
type SummonDTO struct {
	ID          string `json:"id"`
	CaseNumber  string `json:"case_number"`
	Complainant string `json:"complainant"`
	Respondent  string `json:"respondent"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	HearingAt   string `json:"hearing_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// TransitionRequestDTO asks to move a tracked entity to a new status.
type TransitionRequestDTO struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// RECEIPTS
// =============================================================================

// IssueReceiptRequestDTO asks the treasurer to collect payment for a
// clearance and issue a sequential receipt.
type IssueReceiptRequestDTO struct {
	Payer    string `json:"payer"`
	FeeKind  string `json:"fee_kind"`
	Base     string `json:"base"` // decimal string, e.g. "150.00"
	IssuedBy string `json:"issued_by,omitempty"`
}

// ReceiptDTO is an issued receipt.
type ReceiptDTO struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Year        int    `json:"year"`
	ClearanceID string `json:"clearance_id"`
	Payer       string `json:"payer"`
	FeeKind     string `json:"fee_kind"`
	Base        string `json:"base"`
	ChargeRate  string `json:"charge_rate"`
	Charge      string `json:"charge"`
	Total       string `json:"total"`
	IssuedBy    string `json:"issued_by,omitempty"`
	IssuedAt    string `json:"issued_at"`
}

// ConsumptionRecordDTO is one history row for a subject.
type ConsumptionRecordDTO struct {
	ID            string `json:"id"`
	SubmissionID  string `json:"submission_id"`
	SubjectID     string `json:"subject_id"`
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	QuantityLabel string `json:"quantity_label"`
	Reason        string `json:"reason"`
	StaffID       string `json:"staff_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}
