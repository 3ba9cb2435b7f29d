/*
Package treasurer handles clearance payments and official receipts.

PURPOSE:
  A clearance request is not accepted by patching its status: it is paid.
  Issuing a receipt computes the service charge, persists the receipt,
  and marks the clearance Paid - all in one store transaction, so a
  receipt can never exist for an unpaid clearance or vice versa.

RATES:
  The service-charge rate is looked up through an injected RateService
  shared by every caller that needs it (list views and the receipt form
  alike). There is deliberately no process-wide mutable rate value.

MONEY:
  All peso amounts are decimal.Decimal. Charges round half-up to
  centavos at computation time, once.
*/
package treasurer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClearanceNotPayable is returned when the clearance is missing or
	// not in a payable (Pending) status.
	ErrClearanceNotPayable = errors.New("clearance is not payable")

	// ErrRateNotFound is returned when no service-charge rate is configured
	// for the requested fee kind.
	ErrRateNotFound = errors.New("service charge rate not found")

	// ErrNonPositiveAmount rejects zero or negative base amounts.
	ErrNonPositiveAmount = errors.New("receipt amount must be positive")
)

// =============================================================================
// RATES
// =============================================================================

// RateSource provides configured service-charge rates by fee kind
// (e.g. "clearance", "permit").
type RateSource interface {
	ServiceChargeRate(ctx context.Context, feeKind string) (decimal.Decimal, bool, error)
}

// RateService is the injected rate lookup shared across callers.
type RateService struct {
	Source RateSource
}

// Rate returns the service-charge rate for a fee kind.
func (rs *RateService) Rate(ctx context.Context, feeKind string) (decimal.Decimal, error) {
	rate, ok, err := rs.Source.ServiceChargeRate(ctx, feeKind)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate lookup for %s: %w", feeKind, err)
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateNotFound, feeKind)
	}
	return rate, nil
}

// =============================================================================
// RECEIPTS
// =============================================================================

// Receipt is one official receipt. Numbers are sequential per series year.
type Receipt struct {
	ID          string
	Number      int
	Year        int
	ClearanceID string
	Payer       string
	FeeKind     string
	Base        decimal.Decimal
	ChargeRate  decimal.Decimal
	Charge      decimal.Decimal
	Total       decimal.Decimal
	IssuedBy    string
	IssuedAt    time.Time
}

// ReceiptStore persists receipts and performs the payment-driven
// clearance transition.
type ReceiptStore interface {
	// NextReceiptNumber returns the next number in the year's series.
	NextReceiptNumber(ctx context.Context, year int) (int, error)

	// CreateReceipt persists a receipt.
	CreateReceipt(ctx context.Context, r Receipt) error

	// MarkClearancePaid moves a Pending clearance to Paid. Returns
	// ErrClearanceNotPayable when the clearance is missing or not Pending.
	MarkClearancePaid(ctx context.Context, clearanceID string) error

	// WithReceiptTx executes fn transactionally.
	WithReceiptTx(ctx context.Context, fn func(ReceiptStore) error) error
}

// Treasurer issues receipts.
type Treasurer struct {
	Store ReceiptStore
	Rates *RateService

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

func (t *Treasurer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Treasurer) newID() string {
	if t.NewID != nil {
		return t.NewID()
	}
	return uuid.NewString()
}

// IssueReceipt computes charge and total for the base amount, persists
// the receipt, and marks the clearance Paid in the same transaction.
func (t *Treasurer) IssueReceipt(ctx context.Context, clearanceID, payer, feeKind string, base decimal.Decimal, issuedBy string) (Receipt, error) {
	if !base.IsPositive() {
		return Receipt{}, ErrNonPositiveAmount
	}

	rate, err := t.Rates.Rate(ctx, feeKind)
	if err != nil {
		return Receipt{}, err
	}

	issuedAt := t.now()
	charge := base.Mul(rate).Round(2)

	receipt := Receipt{
		ID:          t.newID(),
		Year:        issuedAt.Year(),
		ClearanceID: clearanceID,
		Payer:       payer,
		FeeKind:     feeKind,
		Base:        base,
		ChargeRate:  rate,
		Charge:      charge,
		Total:       base.Add(charge),
		IssuedBy:    issuedBy,
		IssuedAt:    issuedAt,
	}

	err = t.Store.WithReceiptTx(ctx, func(s ReceiptStore) error {
		// Paid-via-receipt is the only route out of Pending on the
		// payment side; a non-pending clearance fails the whole issue.
		if err := s.MarkClearancePaid(ctx, clearanceID); err != nil {
			return err
		}
		n, err := s.NextReceiptNumber(ctx, receipt.Year)
		if err != nil {
			return err
		}
		receipt.Number = n
		return s.CreateReceipt(ctx, receipt)
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}
