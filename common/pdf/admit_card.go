package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// AdmitCardData holds what is printed on a registration admit card
type AdmitCardData struct {
	RegistrationID int64
	EventTitle     string
	EventDate      time.Time
	EventTime      string
	Location       string
	AttendeeName   string
	AttendeeEmail  string
	College        string
	Branch         string
	Year           string
	RollNumber     string
	QRCodePngBytes []byte // raw PNG, not a data URL
}

// GenerateAdmitCard renders the admit card PDF with the registration QR code.
// Returns PDF bytes suitable for an email attachment or a download.
func GenerateAdmitCard(data AdmitCardData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Admit card #%d", data.RegistrationID), true)
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(37, 99, 235)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 20)
	pdf.SetXY(20, 9)
	pdf.CellFormat(170, 10, "EventSync Admit Card", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(36)

	pdf.SetFont("Arial", "B", 18)
	pdf.SetX(20)
	pdf.MultiCell(170, 9, tr(data.EventTitle), "", "L", false)
	pdf.Ln(2)

	when := data.EventDate.Format("Monday, January 2, 2006")
	if data.EventTime != "" {
		when += " at " + data.EventTime
	}
	detailRow(pdf, tr, "Date", when)
	detailRow(pdf, tr, "Venue", data.Location)
	pdf.Ln(4)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	detailRow(pdf, tr, "Name", data.AttendeeName)
	detailRow(pdf, tr, "Email", data.AttendeeEmail)
	detailRow(pdf, tr, "College", data.College)
	detailRow(pdf, tr, "Branch / Year", fmt.Sprintf("%s / %s", data.Branch, data.Year))
	detailRow(pdf, tr, "Roll number", data.RollNumber)
	detailRow(pdf, tr, "Registration", fmt.Sprintf("#%d", data.RegistrationID))
	pdf.Ln(6)

	if len(data.QRCodePngBytes) > 0 {
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		imgName := fmt.Sprintf("qr_%d", data.RegistrationID)
		pdf.RegisterImageOptionsReader(imgName, imgOpts, bytes.NewReader(data.QRCodePngBytes))

		qrX := (210.0 - 80.0) / 2
		pdf.ImageOptions(imgName, qrX, pdf.GetY(), 80, 80, false, imgOpts, 0, "")
		pdf.Ln(84)
	}

	pdf.SetFont("Arial", "I", 11)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 6, "Bring this card (printed or on your phone) to the venue.\nThe QR code is scanned at the entrance to check you in.", "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func detailRow(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetX(20)
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(40, 8, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(130, 8, tr(value), "", "L", false)
}
