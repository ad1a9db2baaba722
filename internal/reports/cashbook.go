package reports

import (
	"fmt"
	"sort"
	"time"

	"maranatha-backend/internal/models"
)

type EntryType string

const (
	EntryInflow  EntryType = "inflow"
	EntryOutflow EntryType = "outflow"
)

// CashbookEntry is one line of the merged donation/disbursement feed.
type CashbookEntry struct {
	ID          uint      `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Type        EntryType `json:"type"`
	AmountKes   float64   `json:"amount_kes"`
	Counterpart string    `json:"counterpart"`
}

// LedgerEntry is a cashbook entry with its contemporaneous running balance.
type LedgerEntry struct {
	CashbookEntry
	RunningBalance float64 `json:"running_balance"`
}

// BuildCashbook merges donations and disbursements into one feed, newest
// first. Disbursements must be loaded with their Group association for the
// counterpart name.
func BuildCashbook(donations []models.Donation, disbursements []models.Disbursement) []CashbookEntry {
	entries := mergeAscending(donations, disbursements)
	reverse(entries)
	return entries
}

// BuildLedger replays the cashbook oldest-first, accumulating
// balance += inflow - outflow, then reverses for newest-first display.
// The final running balance of the ascending fold equals main cash.
func BuildLedger(donations []models.Donation, disbursements []models.Disbursement) []LedgerEntry {
	entries := mergeAscending(donations, disbursements)

	ledger := make([]LedgerEntry, 0, len(entries))
	var balance float64
	for _, e := range entries {
		if e.Type == EntryInflow {
			balance += e.AmountKes
		} else {
			balance -= e.AmountKes
		}
		ledger = append(ledger, LedgerEntry{CashbookEntry: e, RunningBalance: balance})
	}
	reverseLedger(ledger)
	return ledger
}

// mergeAscending produces the canonical ordering of the feed: date, then
// type (inflows before outflows), then row id. The tie-break keeps the
// running-balance fold deterministic across recomputations.
func mergeAscending(donations []models.Donation, disbursements []models.Disbursement) []CashbookEntry {
	entries := make([]CashbookEntry, 0, len(donations)+len(disbursements))
	for _, d := range donations {
		entries = append(entries, CashbookEntry{
			ID:          d.ID,
			Date:        d.DateReceived,
			Description: fmt.Sprintf("Donation received (%.2f SEK @ %.2f)", d.SekAmount, d.ExchangeRate),
			Type:        EntryInflow,
			AmountKes:   d.KesAmount,
			Counterpart: d.DonorName,
		})
	}
	for _, d := range disbursements {
		entries = append(entries, CashbookEntry{
			ID:          d.ID,
			Date:        d.DateDisbursed,
			Description: "Disbursement to group",
			Type:        EntryOutflow,
			AmountKes:   d.AmountKes,
			Counterpart: d.Group.Name,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Type != b.Type {
			return a.Type == EntryInflow
		}
		return a.ID < b.ID
	})
	return entries
}

func reverse(entries []CashbookEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

func reverseLedger(entries []LedgerEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
