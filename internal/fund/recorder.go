package fund

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"maranatha-backend/internal/ledger"
	"maranatha-backend/internal/models"

	"github.com/google/uuid"
)

// Actor is the identity performing a recording operation. Handlers resolve
// it from the JWT claims and pass it explicitly; nothing here reads ambient
// session state.
type Actor struct {
	UserID uint
	Email  string
}

// Recorder implements the transaction-recording operations: donations,
// manual and proportional disbursements, and equal-split payment runs.
// Each operation writes immutable transaction rows and issues exactly one
// balance adjustment per affected group.
type Recorder struct {
	store Store

	// Injected so tests control time and run ids deterministically.
	now      func() time.Time
	newRunID func() string
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store:    store,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// today returns the clock date truncated to midnight; transaction dates are
// day-granular.
func (r *Recorder) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// -------------------------------------------------
// Donations
// -------------------------------------------------

type DonationInput struct {
	DonorName    string
	SekAmount    float64
	ExchangeRate float64
	DateReceived time.Time
}

// RecordDonation writes one immutable donation row. There is no balance
// side effect: main cash is defined as total donations minus total
// disbursements, it is not a stored row.
func (r *Recorder) RecordDonation(in DonationInput, actor Actor) (*models.Donation, error) {
	if actor.UserID == 0 {
		return nil, &ValidationError{Field: "actor", Reason: "authenticated user required"}
	}
	if strings.TrimSpace(in.DonorName) == "" {
		return nil, &ValidationError{Field: "donor_name", Reason: "must not be empty"}
	}
	if in.SekAmount <= 0 {
		return nil, &ValidationError{Field: "sek_amount", Reason: "must be greater than zero"}
	}
	if in.ExchangeRate <= 0 {
		return nil, &ValidationError{Field: "exchange_rate", Reason: "must be greater than zero"}
	}

	d := models.Donation{
		UserID:       actor.UserID,
		DonorName:    strings.TrimSpace(in.DonorName),
		SekAmount:    in.SekAmount,
		ExchangeRate: in.ExchangeRate,
		KesAmount:    ledger.KesEquivalent(in.SekAmount, in.ExchangeRate),
		DateReceived: in.DateReceived,
	}
	if d.DateReceived.IsZero() {
		d.DateReceived = r.today()
	}

	if err := r.store.CreateDonation(&d); err != nil {
		return nil, &PersistenceError{Op: "donation", Err: err}
	}
	return &d, nil
}

// -------------------------------------------------
// Manual disbursement
// -------------------------------------------------

type DisbursementInput struct {
	GroupID   uint
	AmountKes float64
	Notes     string
}

// RecordDisbursement inserts the disbursement row, then credits the group
// balance. A credit failure after a successful insert is reported as a
// PartialFailureError; no compensating rollback is attempted here.
func (r *Recorder) RecordDisbursement(in DisbursementInput, actor Actor) (*models.Disbursement, error) {
	if actor.UserID == 0 {
		return nil, &ValidationError{Field: "actor", Reason: "authenticated user required"}
	}
	if in.AmountKes <= 0 {
		return nil, &ValidationError{Field: "amount_kes", Reason: "must be greater than zero"}
	}
	if _, err := r.store.GroupByID(in.GroupID); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, &ValidationError{Field: "group_id", Reason: "group not found"}
		}
		return nil, &PersistenceError{Op: "disbursement", Err: err}
	}

	d := models.Disbursement{
		UserID:        actor.UserID,
		GroupID:       in.GroupID,
		AmountKes:     in.AmountKes,
		Notes:         in.Notes,
		DateDisbursed: r.today(),
		RecordedBy:    actor.Email,
	}

	if err := r.store.CreateDisbursement(&d); err != nil {
		return nil, &PersistenceError{Op: "disbursement", Err: err}
	}

	if err := r.store.CreditGroupBalance(in.GroupID, in.AmountKes); err != nil {
		return &d, &PartialFailureError{
			Op:     "disbursement",
			Failed: []BalanceAdjustment{{GroupID: in.GroupID, AmountKes: in.AmountKes}},
			Err:    err,
		}
	}
	return &d, nil
}

// -------------------------------------------------
// Proportional disbursement
// -------------------------------------------------

type ProportionalInput struct {
	TotalAmountKes float64
	Notes          string
}

type ProportionalResult struct {
	TotalDisbursed float64
	GroupsPaid     int
	Shares         []BalanceAdjustment
	Disbursements  []models.Disbursement
}

// RecordProportionalDisbursement splits a total across all groups by their
// krona ratio using floor truncation, inserts one disbursement row per
// qualifying group, then credits each group once. Any remainder below the
// floor stays in main cash.
func (r *Recorder) RecordProportionalDisbursement(in ProportionalInput, actor Actor) (*ProportionalResult, error) {
	if actor.UserID == 0 {
		return nil, &ValidationError{Field: "actor", Reason: "authenticated user required"}
	}
	if in.TotalAmountKes <= 0 {
		return nil, &ValidationError{Field: "total_amount_kes", Reason: "must be greater than zero"}
	}

	groups, err := r.store.Groups()
	if err != nil {
		return nil, &PersistenceError{Op: "proportional disbursement", Err: err}
	}

	var totalRatio float64
	for _, g := range groups {
		totalRatio += g.KronaRatio
	}
	if totalRatio <= 0 {
		return nil, &ValidationError{Field: "krona_ratio", Reason: "no ratio configured across groups"}
	}

	var shares []BalanceAdjustment
	for _, g := range groups {
		if g.KronaRatio <= 0 {
			continue
		}
		share := ledger.FloorShare(in.TotalAmountKes, g.KronaRatio, totalRatio)
		if share <= 0 {
			continue
		}
		shares = append(shares, BalanceAdjustment{GroupID: g.ID, AmountKes: share})
	}
	if len(shares) == 0 {
		return nil, &ValidationError{Field: "total_amount_kes", Reason: "amount too small to distribute across group ratios"}
	}

	res := &ProportionalResult{Shares: shares}

	// Insert all rows first, then apply all credits. A failure after the
	// first successful insert leaves rows without credits, which is the
	// partial-failure case.
	date := r.today()
	for i, s := range shares {
		d := models.Disbursement{
			UserID:        actor.UserID,
			GroupID:       s.GroupID,
			AmountKes:     s.AmountKes,
			Notes:         in.Notes,
			DateDisbursed: date,
			RecordedBy:    actor.Email,
		}
		if err := r.store.CreateDisbursement(&d); err != nil {
			if i == 0 {
				return nil, &PersistenceError{Op: "proportional disbursement", Err: err}
			}
			return res, &PartialFailureError{
				Op:     "proportional disbursement",
				Failed: shares, // no credits applied yet
				Err:    fmt.Errorf("row insert failed after %d of %d rows: %w", i, len(shares), err),
			}
		}
		res.Disbursements = append(res.Disbursements, d)
	}

	var applied, failed []BalanceAdjustment
	var firstErr error
	for _, s := range shares {
		if err := r.store.CreditGroupBalance(s.GroupID, s.AmountKes); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, s)
			continue
		}
		applied = append(applied, s)
		res.TotalDisbursed += s.AmountKes
		res.GroupsPaid++
	}
	if len(failed) > 0 {
		return res, &PartialFailureError{
			Op:      "proportional disbursement",
			Applied: applied,
			Failed:  failed,
			Err:     firstErr,
		}
	}
	return res, nil
}

// -------------------------------------------------
// Equal-split payment run
// -------------------------------------------------

type PaymentRunInput struct {
	GroupID        uint
	TotalAmountKes float64
	Notes          string
}

type PaymentRunResult struct {
	PaymentRunID         string
	AmountPerBeneficiary float64
	TotalPaid            float64
	PaymentsCount        int
	Payments             []models.BeneficiaryPayment
}

// RecordPaymentRun pays every active beneficiary of the group an equal
// floor share of the total, under one shared run id, then debits the group
// once with the summed amount.
func (r *Recorder) RecordPaymentRun(in PaymentRunInput, actor Actor) (*PaymentRunResult, error) {
	if actor.UserID == 0 {
		return nil, &ValidationError{Field: "actor", Reason: "authenticated user required"}
	}
	if in.TotalAmountKes <= 0 {
		return nil, &ValidationError{Field: "total_amount_kes", Reason: "must be greater than zero"}
	}

	group, err := r.store.GroupByID(in.GroupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, &ValidationError{Field: "group_id", Reason: "group not found"}
		}
		return nil, &PersistenceError{Op: "payment run", Err: err}
	}

	active, err := r.store.ActiveBeneficiaries(in.GroupID)
	if err != nil {
		return nil, &PersistenceError{Op: "payment run", Err: err}
	}
	if len(active) == 0 {
		return nil, &ValidationError{Field: "group_id", Reason: fmt.Sprintf("group %q has no active beneficiaries", group.Name)}
	}

	if in.TotalAmountKes > group.CurrentBalanceKes {
		return nil, &InsufficientFundsError{
			GroupID:      group.ID,
			RequestedKes: in.TotalAmountKes,
			AvailableKes: group.CurrentBalanceKes,
		}
	}

	per := ledger.EqualSplit(in.TotalAmountKes, len(active))
	if per <= 0 {
		return nil, &ValidationError{Field: "total_amount_kes", Reason: "amount too small to split equally among active beneficiaries"}
	}

	totalPaid := per * float64(len(active))
	runID := r.newRunID()
	datePaid := r.today()

	notes := in.Notes
	if strings.TrimSpace(notes) == "" {
		notes = fmt.Sprintf("Equal split payment run. Share: %.0f KES.", per)
	}

	payments := make([]models.BeneficiaryPayment, 0, len(active))
	for _, b := range active {
		payments = append(payments, models.BeneficiaryPayment{
			UserID:        actor.UserID,
			GroupID:       in.GroupID,
			BeneficiaryID: b.ID,
			AmountKes:     per,
			PaymentRunID:  runID,
			Notes:         notes,
			DatePaid:      datePaid,
		})
	}

	if err := r.store.CreatePayments(payments); err != nil {
		return nil, &PersistenceError{Op: "beneficiary payments", Err: err}
	}

	res := &PaymentRunResult{
		PaymentRunID:         runID,
		AmountPerBeneficiary: per,
		TotalPaid:            totalPaid,
		PaymentsCount:        len(payments),
		Payments:             payments,
	}

	// One debit for the whole run, not one per beneficiary.
	if err := r.store.DebitGroupBalance(in.GroupID, totalPaid); err != nil {
		return res, &PartialFailureError{
			Op:     "payment run",
			Failed: []BalanceAdjustment{{GroupID: in.GroupID, AmountKes: -totalPaid}},
			Err:    err,
		}
	}
	return res, nil
}
