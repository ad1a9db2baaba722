package reports

import (
	"math"

	"maranatha-backend/internal/ledger"
	"maranatha-backend/internal/models"
)

type IncomeStatementData struct {
	TotalDonationsKes     float64 `json:"total_donations_kes"`
	TotalDisbursementsKes float64 `json:"total_disbursements_kes"`
	NetSurplus            float64 `json:"net_surplus"`
}

// BuildIncomeStatement reuses the date-filtered summary flows.
func BuildIncomeStatement(donations []models.Donation, disbursements []models.Disbursement, groups []models.Group, r DateRange) IncomeStatementData {
	s := BuildSummary(donations, disbursements, groups, r)
	return IncomeStatementData{
		TotalDonationsKes:     s.TotalDonationsKes,
		TotalDisbursementsKes: s.TotalDisbursementsKes,
		NetSurplus:            s.TotalDonationsKes - s.TotalDisbursementsKes,
	}
}

type BalanceSheetData struct {
	MainCashBalance        float64 `json:"main_cash_balance"`
	TotalGroupBalance      float64 `json:"total_group_balance"`
	TotalAssets            float64 `json:"total_assets"`
	AccumulatedFundBalance float64 `json:"accumulated_fund_balance"`
	IsBalanced             bool    `json:"is_balanced"`
}

// BuildBalanceSheet is always a point-in-time snapshot and takes no date
// range. Equity is a residual here: the accumulated fund balance is defined
// as total assets (no liabilities, no opening balances), so IsBalanced only
// guards against the computation drifting.
func BuildBalanceSheet(donations []models.Donation, disbursements []models.Disbursement, groups []models.Group) BalanceSheetData {
	var b BalanceSheetData
	b.MainCashBalance = MainCash(donations, disbursements)
	for _, g := range groups {
		b.TotalGroupBalance += g.CurrentBalanceKes
	}
	b.TotalAssets = b.MainCashBalance + b.TotalGroupBalance
	b.AccumulatedFundBalance = b.TotalAssets
	b.IsBalanced = ledger.CentsEqual(b.TotalAssets, b.AccumulatedFundBalance)
	return b
}

type TrialBalanceRow struct {
	Account string  `json:"account"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
}

type TrialBalanceData struct {
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  float64           `json:"total_debits"`
	TotalCredits float64           `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
}

// BuildTrialBalance treats donations for the window as a credit and
// disbursements as a debit, then injects one balancing entry sized to the
// absolute net so the columns agree by construction. IsBalanced compares
// the column totals at integer-cent granularity.
func BuildTrialBalance(donations []models.Donation, disbursements []models.Disbursement, groups []models.Group, r DateRange) TrialBalanceData {
	s := BuildSummary(donations, disbursements, groups, r)
	net := s.TotalDonationsKes - s.TotalDisbursementsKes

	rows := []TrialBalanceRow{
		{Account: "Donations (income)", Credit: s.TotalDonationsKes},
		{Account: "Disbursements to groups", Debit: s.TotalDisbursementsKes},
	}
	balancing := TrialBalanceRow{Account: "Net surplus/(deficit)"}
	if net > 0 {
		balancing.Debit = net
	} else {
		balancing.Credit = math.Abs(net)
	}
	rows = append(rows, balancing)

	var t TrialBalanceData
	t.Rows = rows
	for _, row := range rows {
		t.TotalDebits += row.Debit
		t.TotalCredits += row.Credit
	}
	t.IsBalanced = ledger.CentsEqual(t.TotalDebits, t.TotalCredits)
	return t
}
