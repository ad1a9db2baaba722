// Package reports derives every financial view from the transaction tables
// plus current group balances. Nothing here is cached or persisted; each
// request recomputes from fresh rows, and all arithmetic lives in pure
// functions over fetched slices so it can be tested without a database.
package reports

import (
	"time"

	"maranatha-backend/internal/models"
)

// DateRange filters transaction flows. Bounds are inclusive; nil means
// unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

type FinancialSummary struct {
	TotalDonationsKes     float64 `json:"total_donations_kes"`
	TotalDisbursementsKes float64 `json:"total_disbursements_kes"`
	MainCashBalance       float64 `json:"main_cash_balance"`
	TotalGroupBalance     float64 `json:"total_group_balance"`
	TotalSystemBalance    float64 `json:"total_system_balance"`
}

// MainCash is the single definition of the implicit main-cash account:
// the sum of ALL donations minus the sum of ALL disbursements. Every report
// derives it from here so no two call sites can diverge.
func MainCash(donations []models.Donation, disbursements []models.Disbursement) float64 {
	var in, out float64
	for _, d := range donations {
		in += d.KesAmount
	}
	for _, d := range disbursements {
		out += d.AmountKes
	}
	return in - out
}

// BuildSummary computes the financial summary. The donation/disbursement
// totals honor the date range; the three balances are always as-of-now,
// regardless of the range. The summary answers "how much moved in this
// window" alongside "what is the current state".
func BuildSummary(donations []models.Donation, disbursements []models.Disbursement, groups []models.Group, r DateRange) FinancialSummary {
	var s FinancialSummary
	for _, d := range donations {
		if r.contains(d.DateReceived) {
			s.TotalDonationsKes += d.KesAmount
		}
	}
	for _, d := range disbursements {
		if r.contains(d.DateDisbursed) {
			s.TotalDisbursementsKes += d.AmountKes
		}
	}
	s.MainCashBalance = MainCash(donations, disbursements)
	for _, g := range groups {
		s.TotalGroupBalance += g.CurrentBalanceKes
	}
	s.TotalSystemBalance = s.MainCashBalance + s.TotalGroupBalance
	return s
}
