package voucher

import (
	"bytes"
	"testing"
	"time"

	"maranatha-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

func samplePayment() *models.BeneficiaryPayment {
	return &models.BeneficiaryPayment{
		ID:            42,
		PaymentRunID:  "run-0001",
		AmountKes:     3333,
		Notes:         "Equal split payment run. Share: 3333 KES.",
		DatePaid:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Group:         models.Group{Name: "Ngong Group"},
		Beneficiary:   models.Beneficiary{FullName: "Jane Wanjiru", SponsorNumber: "SP-104"},
		BeneficiaryID: 7,
		GroupID:       3,
	}
}

func TestGenerate(t *testing.T) {
	data, filename, err := Generate(samplePayment(), 12.10)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filename != "payment_voucher_42.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("voucher is not a readable workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	checks := map[string]string{
		"A1":  "Maranatha FMS",
		"B4":  "PV-000042",
		"B5":  "run-0001",
		"B6":  "2025-06-15",
		"B8":  "Jane Wanjiru",
		"B9":  "SP-104",
		"B10": "Ngong Group",
		"B12": "3333",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestGenerateWithoutRate(t *testing.T) {
	data, _, err := Generate(samplePayment(), 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("voucher is not a readable workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	got, err := f.GetCellValue(sheet, "A13")
	if err != nil {
		t.Fatalf("GetCellValue(A13): %v", err)
	}
	if got != "" {
		t.Errorf("rate row should be empty when no rate is given, got %q", got)
	}
}
