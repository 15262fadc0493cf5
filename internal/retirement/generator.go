// Package retirement produces the retirement certificate document issued
// when a carbon certificate is burned.
package retirement

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"carbonmark/marketplace-backend/internal/metastore"
)

// BurnSnapshot carries the fields of a burned registry certificate that the
// retirement document needs, so this package does not depend on registry.
type BurnSnapshot struct {
	ID          int64
	Holder      string
	Amount      int64
	ProjectType string
	Methodology string
	Location    string
}

// Certificate is the data rendered onto a retirement document.
type Certificate struct {
	CertificateID int64
	Holder        string
	Amount        int64
	ProjectType   string
	Methodology   string
	Location      string
	RetiredAt     time.Time
	Purpose       string
}

// Generator renders retirement PDFs and stores them in the metadata store.
type Generator struct {
	store metastore.Store
}

func NewGenerator(store metastore.Store) *Generator {
	return &Generator{store: store}
}

// FromBurn builds the retirement data from a burned certificate snapshot.
func FromBurn(cert BurnSnapshot, retiredAt time.Time, purpose string) Certificate {
	return Certificate{
		CertificateID: cert.ID,
		Holder:        cert.Holder,
		Amount:        cert.Amount,
		ProjectType:   cert.ProjectType,
		Methodology:   cert.Methodology,
		Location:      cert.Location,
		RetiredAt:     retiredAt,
		Purpose:       purpose,
	}
}

// Generate renders the document and returns its content reference.
func (g *Generator) Generate(ctx context.Context, cert Certificate) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 16, "Certificate of Carbon Credit Retirement", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	rows := [][2]string{
		{"Certificate ID", fmt.Sprintf("%d", cert.CertificateID)},
		{"Retired By", cert.Holder},
		{"Amount", fmt.Sprintf("%d tCO2e", cert.Amount)},
		{"Project Type", cert.ProjectType},
		{"Methodology", cert.Methodology},
		{"Location", cert.Location},
		{"Retired At", cert.RetiredAt.UTC().Format(time.RFC3339)},
	}
	if cert.Purpose != "" {
		rows = append(rows, [2]string{"Purpose", cert.Purpose})
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(50, 9, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 9, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This certificate records the permanent retirement of the carbon-reduction units above. The underlying certificate has been burned and cannot be transferred or retired again.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("rendering retirement certificate: %w", err)
	}
	ref, err := g.store.Put(ctx, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("storing retirement certificate: %w", err)
	}
	return ref, nil
}
