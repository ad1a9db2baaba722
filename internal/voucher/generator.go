package voucher

import (
	"fmt"

	"maranatha-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// Generate renders one payment row as a printable xlsx voucher. rate is an
// optional SEK exchange rate; when positive the voucher shows the SEK
// equivalent of the amount alongside the KES figure.
func Generate(p *models.BeneficiaryPayment, rate float64) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	set := func(cell string, value any) {
		f.SetCellValue(sheet, cell, value)
	}

	set("A1", "Maranatha FMS")
	set("A2", "Beneficiary Payment Voucher")

	set("A4", "Voucher No:")
	set("B4", fmt.Sprintf("PV-%06d", p.ID))
	set("A5", "Payment Run:")
	set("B5", p.PaymentRunID)
	set("A6", "Date Paid:")
	set("B6", p.DatePaid.Format("2006-01-02"))

	set("A8", "Beneficiary:")
	set("B8", p.Beneficiary.FullName)
	set("A9", "Sponsor No:")
	set("B9", p.Beneficiary.SponsorNumber)
	set("A10", "Group:")
	set("B10", p.Group.Name)

	set("A12", "Amount (KES):")
	set("B12", p.AmountKes)
	if rate > 0 {
		set("A13", "Exchange Rate:")
		set("B13", rate)
		set("A14", "Equivalent (SEK):")
		set("B14", p.AmountKes/rate)
	}
	if p.Notes != "" {
		set("A16", "Notes:")
		set("B16", p.Notes)
	}

	set("A19", "Received by (signature):")
	set("A21", "Authorized by (signature):")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("payment_voucher_%d.xlsx", p.ID)
	return buf.Bytes(), filename, nil
}
