package fund

import (
	"errors"
	"testing"
	"time"

	"maranatha-backend/internal/models"
)

// memStore is an in-memory Store with switchable faults, used to exercise
// the recorder's failure classification without a database.
type memStore struct {
	groups        map[uint]*models.Group
	beneficiaries []models.Beneficiary
	donations     []models.Donation
	disbursements []models.Disbursement
	payments      []models.BeneficiaryPayment

	failInsert      bool
	failInsertAfter int // fail inserts once this many rows exist (-1: disabled)
	failCreditFor   map[uint]bool
	failDebit       bool
}

func newMemStore() *memStore {
	return &memStore{
		groups:          make(map[uint]*models.Group),
		failInsertAfter: -1,
		failCreditFor:   make(map[uint]bool),
	}
}

var errStoreFault = errors.New("simulated store fault")

func (s *memStore) GroupByID(id uint) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memStore) Groups() ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for id := uint(1); id <= uint(len(s.groups)); id++ {
		if g, ok := s.groups[id]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *memStore) ActiveBeneficiaries(groupID uint) ([]models.Beneficiary, error) {
	var out []models.Beneficiary
	for _, b := range s.beneficiaries {
		if b.GroupID == groupID && b.Status == models.BeneficiaryActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) CreateDonation(d *models.Donation) error {
	if s.failInsert {
		return errStoreFault
	}
	d.ID = uint(len(s.donations) + 1)
	s.donations = append(s.donations, *d)
	return nil
}

func (s *memStore) CreateDisbursement(d *models.Disbursement) error {
	if s.failInsert {
		return errStoreFault
	}
	if s.failInsertAfter >= 0 && len(s.disbursements) >= s.failInsertAfter {
		return errStoreFault
	}
	d.ID = uint(len(s.disbursements) + 1)
	s.disbursements = append(s.disbursements, *d)
	return nil
}

func (s *memStore) CreatePayments(ps []models.BeneficiaryPayment) error {
	if s.failInsert {
		return errStoreFault
	}
	for i := range ps {
		ps[i].ID = uint(len(s.payments) + 1)
		s.payments = append(s.payments, ps[i])
	}
	return nil
}

func (s *memStore) CreditGroupBalance(groupID uint, amountKes float64) error {
	if s.failCreditFor[groupID] {
		return errStoreFault
	}
	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	g.CurrentBalanceKes += amountKes
	return nil
}

func (s *memStore) DebitGroupBalance(groupID uint, amountKes float64) error {
	if s.failDebit {
		return errStoreFault
	}
	return s.CreditGroupBalance(groupID, -amountKes)
}

func newTestRecorder(s *memStore) *Recorder {
	r := NewRecorder(s)
	r.now = func() time.Time { return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC) }
	r.newRunID = func() string { return "run-0001" }
	return r
}

var actor = Actor{UserID: 1, Email: "treasurer@maranatha.org"}

func TestRecordDonation(t *testing.T) {
	s := newMemStore()
	r := newTestRecorder(s)

	d, err := r.RecordDonation(DonationInput{
		DonorName:    "Svenska Kyrkan",
		SekAmount:    10000,
		ExchangeRate: 12.10,
		DateReceived: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}, actor)
	if err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if d.KesAmount != 121000 {
		t.Errorf("KesAmount = %v, want 121000", d.KesAmount)
	}
	if len(s.donations) != 1 {
		t.Fatalf("expected 1 donation row, got %d", len(s.donations))
	}
}

func TestRecordDonationValidation(t *testing.T) {
	r := newTestRecorder(newMemStore())
	cases := []DonationInput{
		{DonorName: "", SekAmount: 100, ExchangeRate: 12},
		{DonorName: "X", SekAmount: 0, ExchangeRate: 12},
		{DonorName: "X", SekAmount: 100, ExchangeRate: -1},
	}
	for i, in := range cases {
		_, err := r.RecordDonation(in, actor)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if _, err := r.RecordDonation(DonationInput{DonorName: "X", SekAmount: 1, ExchangeRate: 1}, Actor{}); err == nil {
		t.Error("missing actor should fail")
	}
}

func TestRecordDisbursementCreditsGroup(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi", CurrentBalanceKes: 500}
	r := newTestRecorder(s)

	d, err := r.RecordDisbursement(DisbursementInput{GroupID: 1, AmountKes: 2000, Notes: "term 2"}, actor)
	if err != nil {
		t.Fatalf("RecordDisbursement: %v", err)
	}
	if d.RecordedBy != actor.Email {
		t.Errorf("RecordedBy = %q, want actor email", d.RecordedBy)
	}
	if got := s.groups[1].CurrentBalanceKes; got != 2500 {
		t.Errorf("group balance = %v, want 2500", got)
	}
}

// Scenario: insert succeeds, credit fails. The row must remain observable
// and the error must be the distinct partial-failure class.
func TestRecordDisbursementPartialFailure(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi"}
	s.failCreditFor[1] = true
	r := newTestRecorder(s)

	_, err := r.RecordDisbursement(DisbursementInput{GroupID: 1, AmountKes: 1000}, actor)
	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if len(pf.Failed) != 1 || pf.Failed[0].GroupID != 1 || pf.Failed[0].AmountKes != 1000 {
		t.Errorf("Failed = %+v", pf.Failed)
	}
	if len(s.disbursements) != 1 {
		t.Fatalf("disbursement row must be present after partial failure, got %d rows", len(s.disbursements))
	}
	if s.groups[1].CurrentBalanceKes != 0 {
		t.Errorf("balance must remain untouched, got %v", s.groups[1].CurrentBalanceKes)
	}
}

func TestRecordDisbursementUnknownGroup(t *testing.T) {
	r := newTestRecorder(newMemStore())
	_, err := r.RecordDisbursement(DisbursementInput{GroupID: 9, AmountKes: 100}, actor)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for missing group, got %v", err)
	}
}

func TestProportionalDisbursement(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi", KronaRatio: 30}
	s.groups[2] = &models.Group{ID: 2, Name: "Kisumu", KronaRatio: 70}
	r := newTestRecorder(s)

	res, err := r.RecordProportionalDisbursement(ProportionalInput{TotalAmountKes: 100000}, actor)
	if err != nil {
		t.Fatalf("RecordProportionalDisbursement: %v", err)
	}
	if res.TotalDisbursed != 100000 || res.GroupsPaid != 2 {
		t.Errorf("result = %+v", res)
	}
	if s.groups[1].CurrentBalanceKes != 30000 {
		t.Errorf("group 1 balance = %v, want 30000", s.groups[1].CurrentBalanceKes)
	}
	if s.groups[2].CurrentBalanceKes != 70000 {
		t.Errorf("group 2 balance = %v, want 70000", s.groups[2].CurrentBalanceKes)
	}
	if len(s.disbursements) != 2 {
		t.Errorf("expected 2 rows, got %d", len(s.disbursements))
	}
}

func TestProportionalDisbursementSkipsZeroShares(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, KronaRatio: 1}
	s.groups[2] = &models.Group{ID: 2, KronaRatio: 1000}
	r := newTestRecorder(s)

	// Group 1's floor share of 500 is 0; only group 2 gets a row.
	res, err := r.RecordProportionalDisbursement(ProportionalInput{TotalAmountKes: 500}, actor)
	if err != nil {
		t.Fatalf("RecordProportionalDisbursement: %v", err)
	}
	if res.GroupsPaid != 1 || len(s.disbursements) != 1 {
		t.Errorf("expected a single qualifying group, got %+v", res)
	}
	if res.TotalDisbursed > 500 {
		t.Errorf("disbursed %v exceeds total", res.TotalDisbursed)
	}
}

func TestProportionalDisbursementNoRatio(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, KronaRatio: 0}
	r := newTestRecorder(s)

	_, err := r.RecordProportionalDisbursement(ProportionalInput{TotalAmountKes: 1000}, actor)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(s.disbursements) != 0 {
		t.Error("nothing may be written when no ratio is configured")
	}
}

// Credits fail for one of two groups after all rows are in: the error must
// say which adjustments were applied and which were not.
func TestProportionalDisbursementPartialCredits(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, KronaRatio: 50}
	s.groups[2] = &models.Group{ID: 2, KronaRatio: 50}
	s.failCreditFor[2] = true
	r := newTestRecorder(s)

	_, err := r.RecordProportionalDisbursement(ProportionalInput{TotalAmountKes: 10000}, actor)
	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if len(pf.Applied) != 1 || pf.Applied[0].GroupID != 1 {
		t.Errorf("Applied = %+v", pf.Applied)
	}
	if len(pf.Failed) != 1 || pf.Failed[0].GroupID != 2 {
		t.Errorf("Failed = %+v", pf.Failed)
	}
	if len(s.disbursements) != 2 {
		t.Errorf("both rows must exist, got %d", len(s.disbursements))
	}
}

// Scenario C: 3 active beneficiaries, balance 10000, run of 10000.
func TestPaymentRunEqualSplit(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi", CurrentBalanceKes: 10000}
	s.beneficiaries = []models.Beneficiary{
		{ID: 1, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 2, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 3, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 4, GroupID: 1, Status: models.BeneficiaryGraduated},
	}
	r := newTestRecorder(s)

	res, err := r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 10000}, actor)
	if err != nil {
		t.Fatalf("RecordPaymentRun: %v", err)
	}
	if res.AmountPerBeneficiary != 3333 {
		t.Errorf("per = %v, want 3333", res.AmountPerBeneficiary)
	}
	if res.TotalPaid != 9999 {
		t.Errorf("totalPaid = %v, want 9999", res.TotalPaid)
	}
	if res.PaymentsCount != 3 {
		t.Errorf("paymentsCount = %d, want 3 (graduated excluded)", res.PaymentsCount)
	}
	if s.groups[1].CurrentBalanceKes != 1 {
		t.Errorf("group balance = %v, want 1", s.groups[1].CurrentBalanceKes)
	}
	for _, p := range s.payments {
		if p.PaymentRunID != "run-0001" {
			t.Errorf("payment %d missing shared run id: %q", p.ID, p.PaymentRunID)
		}
		if p.Notes == "" {
			t.Errorf("payment %d should carry the default note", p.ID)
		}
	}
}

// Scenario D: requesting more than the balance writes nothing.
func TestPaymentRunInsufficientFunds(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, CurrentBalanceKes: 500}
	s.beneficiaries = []models.Beneficiary{{ID: 1, GroupID: 1, Status: models.BeneficiaryActive}}
	r := newTestRecorder(s)

	_, err := r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 600}, actor)
	var ife *InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if ife.AvailableKes != 500 || ife.RequestedKes != 600 {
		t.Errorf("error detail = %+v", ife)
	}
	if len(s.payments) != 0 {
		t.Error("no payment rows may be written")
	}
	if s.groups[1].CurrentBalanceKes != 500 {
		t.Error("balance must be untouched")
	}
}

func TestPaymentRunPreconditionOrder(t *testing.T) {
	s := newMemStore()
	r := newTestRecorder(s)

	// group missing
	_, err := r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 100}, actor)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "group_id" {
		t.Fatalf("expected group_id ValidationError, got %v", err)
	}

	// group exists, no active beneficiaries
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi", CurrentBalanceKes: 10}
	_, err = r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 100}, actor)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty group, got %v", err)
	}

	// share rounds to zero
	s.beneficiaries = []models.Beneficiary{
		{ID: 1, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 2, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 3, GroupID: 1, Status: models.BeneficiaryActive},
	}
	_, err = r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 2}, actor)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero share, got %v", err)
	}
}

// Scenario E analog for payment runs: rows inserted, debit fails.
func TestPaymentRunPartialFailure(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, CurrentBalanceKes: 10000}
	s.beneficiaries = []models.Beneficiary{
		{ID: 1, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 2, GroupID: 1, Status: models.BeneficiaryActive},
	}
	s.failDebit = true
	r := newTestRecorder(s)

	res, err := r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 10000}, actor)
	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if res == nil || res.TotalPaid != 10000 {
		t.Fatalf("result must describe the recorded run, got %+v", res)
	}
	if len(s.payments) != 2 {
		t.Errorf("payment rows must remain observable, got %d", len(s.payments))
	}
	if s.groups[1].CurrentBalanceKes != 10000 {
		t.Error("balance must be untouched when the debit failed")
	}
}

// Conservation: main cash (donations minus disbursements) plus group
// balances always equals total donations, across a mixed sequence.
func TestConservationAcrossOperations(t *testing.T) {
	s := newMemStore()
	s.groups[1] = &models.Group{ID: 1, Name: "Nairobi", KronaRatio: 30}
	s.groups[2] = &models.Group{ID: 2, Name: "Kisumu", KronaRatio: 70}
	s.beneficiaries = []models.Beneficiary{
		{ID: 1, GroupID: 1, Status: models.BeneficiaryActive},
		{ID: 2, GroupID: 1, Status: models.BeneficiaryActive},
	}
	r := newTestRecorder(s)

	mustNoErr := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("operation failed: %v", err)
		}
	}

	_, err := r.RecordDonation(DonationInput{DonorName: "A", SekAmount: 10000, ExchangeRate: 12.10}, actor)
	mustNoErr(err)
	_, err = r.RecordDonation(DonationInput{DonorName: "B", SekAmount: 2500, ExchangeRate: 13}, actor)
	mustNoErr(err)
	_, err = r.RecordProportionalDisbursement(ProportionalInput{TotalAmountKes: 100000}, actor)
	mustNoErr(err)
	_, err = r.RecordDisbursement(DisbursementInput{GroupID: 1, AmountKes: 5000}, actor)
	mustNoErr(err)
	_, err = r.RecordPaymentRun(PaymentRunInput{GroupID: 1, TotalAmountKes: 10000}, actor)
	mustNoErr(err)

	var totalDonations, totalDisbursed float64
	for _, d := range s.donations {
		totalDonations += d.KesAmount
	}
	for _, d := range s.disbursements {
		totalDisbursed += d.AmountKes
	}
	mainCash := totalDonations - totalDisbursed

	var groupTotal float64
	for _, g := range s.groups {
		groupTotal += g.CurrentBalanceKes
	}

	// Payments leave the system: total in the system is donations minus paid out.
	var totalPaidOut float64
	for _, p := range s.payments {
		totalPaidOut += p.AmountKes
	}
	if got, want := mainCash+groupTotal, totalDonations-totalPaidOut; got != want {
		t.Errorf("system balance = %v, want %v", got, want)
	}
}
