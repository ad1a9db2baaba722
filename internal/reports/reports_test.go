package reports

import (
	"testing"
	"time"

	"maranatha-backend/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleData() ([]models.Donation, []models.Disbursement, []models.Group) {
	donations := []models.Donation{
		{ID: 1, DonorName: "Svenska Kyrkan", SekAmount: 10000, ExchangeRate: 12.10, KesAmount: 121000, DateReceived: day(2025, 1, 10)},
		{ID: 2, DonorName: "Lund Rotary", SekAmount: 2000, ExchangeRate: 12.50, KesAmount: 25000, DateReceived: day(2025, 2, 5)},
		{ID: 3, DonorName: "Private donor", SekAmount: 400, ExchangeRate: 12, KesAmount: 4800, DateReceived: day(2025, 3, 1)},
	}
	disbursements := []models.Disbursement{
		{ID: 1, GroupID: 1, Group: models.Group{ID: 1, Name: "Nairobi"}, AmountKes: 30000, DateDisbursed: day(2025, 1, 20)},
		{ID: 2, GroupID: 2, Group: models.Group{ID: 2, Name: "Kisumu"}, AmountKes: 70000, DateDisbursed: day(2025, 1, 20)},
		{ID: 3, GroupID: 1, Group: models.Group{ID: 1, Name: "Nairobi"}, AmountKes: 5000, DateDisbursed: day(2025, 2, 10)},
	}
	groups := []models.Group{
		{ID: 1, Name: "Nairobi", CurrentBalanceKes: 25000},
		{ID: 2, Name: "Kisumu", CurrentBalanceKes: 70000},
	}
	return donations, disbursements, groups
}

func TestBuildSummaryUnfiltered(t *testing.T) {
	donations, disbursements, groups := sampleData()
	s := BuildSummary(donations, disbursements, groups, DateRange{})

	if s.TotalDonationsKes != 150800 {
		t.Errorf("TotalDonationsKes = %v, want 150800", s.TotalDonationsKes)
	}
	if s.TotalDisbursementsKes != 105000 {
		t.Errorf("TotalDisbursementsKes = %v, want 105000", s.TotalDisbursementsKes)
	}
	if s.MainCashBalance != 45800 {
		t.Errorf("MainCashBalance = %v, want 45800", s.MainCashBalance)
	}
	if s.TotalGroupBalance != 95000 {
		t.Errorf("TotalGroupBalance = %v, want 95000", s.TotalGroupBalance)
	}
	if s.TotalSystemBalance != 140800 {
		t.Errorf("TotalSystemBalance = %v, want 140800", s.TotalSystemBalance)
	}
}

// Flows honor the window; balances never do.
func TestBuildSummaryDateFilterAsymmetry(t *testing.T) {
	donations, disbursements, groups := sampleData()
	from, to := day(2025, 2, 1), day(2025, 2, 28)
	s := BuildSummary(donations, disbursements, groups, DateRange{From: &from, To: &to})

	if s.TotalDonationsKes != 25000 {
		t.Errorf("filtered donations = %v, want 25000", s.TotalDonationsKes)
	}
	if s.TotalDisbursementsKes != 5000 {
		t.Errorf("filtered disbursements = %v, want 5000", s.TotalDisbursementsKes)
	}
	if s.MainCashBalance != 45800 {
		t.Errorf("MainCashBalance must ignore the filter, got %v", s.MainCashBalance)
	}
	if s.TotalGroupBalance != 95000 {
		t.Errorf("TotalGroupBalance must ignore the filter, got %v", s.TotalGroupBalance)
	}
}

func TestDateRangeInclusiveBounds(t *testing.T) {
	donations, _, _ := sampleData()
	from, to := day(2025, 1, 10), day(2025, 2, 5)
	s := BuildSummary(donations, nil, nil, DateRange{From: &from, To: &to})
	if s.TotalDonationsKes != 146000 {
		t.Errorf("bounds must be inclusive, got %v", s.TotalDonationsKes)
	}
}

func TestBuildCashbookOrdering(t *testing.T) {
	donations, disbursements, _ := sampleData()
	entries := BuildCashbook(donations, disbursements)

	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.After(entries[i-1].Date) {
			t.Errorf("entries not descending at %d", i)
		}
	}
	if entries[0].Type != EntryInflow || entries[0].Counterpart != "Private donor" {
		t.Errorf("newest entry = %+v", entries[0])
	}
	// Same-date tie: the two Jan 20 disbursements order by id, ids descending
	// in display order.
	var janOut []CashbookEntry
	for _, e := range entries {
		if e.Type == EntryOutflow && e.Date.Equal(day(2025, 1, 20)) {
			janOut = append(janOut, e)
		}
	}
	if len(janOut) != 2 || janOut[0].ID != 2 || janOut[1].ID != 1 {
		t.Errorf("tie-break not stable: %+v", janOut)
	}
}

func TestBuildLedgerRunningBalance(t *testing.T) {
	donations, disbursements, _ := sampleData()
	entries := BuildLedger(donations, disbursements)

	if len(entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(entries))
	}
	// Newest-first display: the first row carries the final balance, which
	// must equal main cash derived independently.
	if got, want := entries[0].RunningBalance, MainCash(donations, disbursements); got != want {
		t.Errorf("final running balance = %v, want main cash %v", got, want)
	}
	// Oldest row is the first donation.
	last := entries[len(entries)-1]
	if last.RunningBalance != 121000 {
		t.Errorf("oldest running balance = %v, want 121000", last.RunningBalance)
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	donations, disbursements, groups := sampleData()
	from, to := day(2025, 1, 1), day(2025, 1, 31)
	is := BuildIncomeStatement(donations, disbursements, groups, DateRange{From: &from, To: &to})
	if is.TotalDonationsKes != 121000 || is.TotalDisbursementsKes != 100000 {
		t.Errorf("january flows = %+v", is)
	}
	if is.NetSurplus != 21000 {
		t.Errorf("NetSurplus = %v, want 21000", is.NetSurplus)
	}
}

func TestBuildBalanceSheetIdentity(t *testing.T) {
	donations, disbursements, groups := sampleData()
	b := BuildBalanceSheet(donations, disbursements, groups)
	if b.TotalAssets != 140800 {
		t.Errorf("TotalAssets = %v, want 140800", b.TotalAssets)
	}
	if b.AccumulatedFundBalance != b.TotalAssets {
		t.Error("accumulated fund balance must equal total assets")
	}
	if !b.IsBalanced {
		t.Error("balance sheet must balance by construction")
	}
}

func TestBuildTrialBalanceSurplus(t *testing.T) {
	donations, disbursements, groups := sampleData()
	tb := BuildTrialBalance(donations, disbursements, groups, DateRange{})
	if len(tb.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tb.Rows))
	}
	// Net surplus 45800 lands in the debit column.
	if tb.Rows[2].Debit != 45800 || tb.Rows[2].Credit != 0 {
		t.Errorf("balancing row = %+v", tb.Rows[2])
	}
	if tb.TotalDebits != tb.TotalCredits {
		t.Errorf("debits %v != credits %v", tb.TotalDebits, tb.TotalCredits)
	}
	if !tb.IsBalanced {
		t.Error("trial balance must balance")
	}
}

func TestBuildTrialBalanceDeficit(t *testing.T) {
	// Disbursements exceed donations in the window: balancing entry goes to
	// the credit column.
	donations, disbursements, groups := sampleData()
	from, to := day(2025, 1, 15), day(2025, 1, 31)
	tb := BuildTrialBalance(donations, disbursements, groups, DateRange{From: &from, To: &to})
	if tb.Rows[2].Credit != 100000 || tb.Rows[2].Debit != 0 {
		t.Errorf("balancing row = %+v", tb.Rows[2])
	}
	if !tb.IsBalanced {
		t.Error("trial balance must balance in deficit windows too")
	}
}

func TestTrialBalanceCentTolerance(t *testing.T) {
	donations := []models.Donation{
		{ID: 1, KesAmount: 0.1, DateReceived: day(2025, 1, 1)},
		{ID: 2, KesAmount: 0.2, DateReceived: day(2025, 1, 2)},
	}
	disbursements := []models.Disbursement{
		{ID: 1, AmountKes: 0.3, DateDisbursed: day(2025, 1, 3)},
	}
	tb := BuildTrialBalance(donations, disbursements, nil, DateRange{})
	if !tb.IsBalanced {
		t.Error("cent-granularity comparison must absorb float noise")
	}
}
