// Package report renders patient and transaction listings as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/utils"
)

const (
	PatientsFilename     = "data_pasien_rawat_inap.pdf"
	TransactionsFilename = "data_transaksi.pdf"

	dateLayout    = "2006-01-02"
	maxNameLength = 30
)

// PatientTransactionsFilename returns the download name of one patient's
// transaction report.
func PatientTransactionsFilename(patientID int64) string {
	return fmt.Sprintf("data_transaksi_pasien_%d.pdf", patientID)
}

// Exporter builds fixed-layout A4 tables
type Exporter struct {
	compress bool
}

// NewExporter returns an exporter producing compressed documents
func NewExporter() *Exporter {
	return &Exporter{compress: true}
}

type column struct {
	header string
	width  float64
	align  string
}

type table struct {
	title     string
	titleSize float64
	bodySize  float64
	rowHeight float64
	gap       float64
	fill      [3]int
	columns   []column
}

// Patients renders the patient registry
func (e *Exporter) Patients(patients []models.Patient) ([]byte, error) {
	t := table{
		title:     "Data Pasien Rawat Inap",
		titleSize: 16,
		bodySize:  12,
		rowHeight: 10,
		gap:       10,
		fill:      [3]int{240, 240, 240},
		columns: []column{
			{"ID Pasien", 40, "C"},
			{"Nama Pasien", 60, "C"},
			{"Alamat", 60, "C"},
			{"Kontak", 40, "C"},
		},
	}

	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, p.Address, p.Contact})
	}
	return e.render(t, rows)
}

// Transactions renders all transactions, newest first as given
func (e *Exporter) Transactions(txs []models.Transaction) ([]byte, error) {
	t := table{
		title:     "Data Transaksi",
		titleSize: 16,
		bodySize:  11,
		rowHeight: 8,
		gap:       8,
		fill:      [3]int{245, 245, 245},
		columns: []column{
			{"ID", 25, "C"},
			{"Nama Pasien", 55, "L"},
			{"Total", 35, "R"},
			{"Tanggal", 35, "C"},
			{"Status", 30, "C"},
		},
	}

	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			utils.TransactionLabel(tx.ID),
			truncate(tx.PatientName, maxNameLength),
			utils.FormatRupiah(tx.Total),
			tx.Date.Format(dateLayout),
			utils.PaidLabel(tx.Paid),
		})
	}
	return e.render(t, rows)
}

// PatientTransactions renders one patient's transactions. The title uses the
// patient name of the first row, or the id when there are none.
func (e *Exporter) PatientTransactions(patientID int64, txs []models.Transaction) ([]byte, error) {
	name := fmt.Sprintf("ID %d", patientID)
	if len(txs) > 0 {
		name = txs[0].PatientName
	}

	t := table{
		title:     "Data Transaksi - " + name,
		titleSize: 15,
		bodySize:  11,
		rowHeight: 8,
		gap:       8,
		fill:      [3]int{245, 245, 245},
		columns: []column{
			{"ID Trans.", 30, "C"},
			{"Tanggal", 50, "C"},
			{"Total", 50, "R"},
			{"Status", 50, "C"},
		},
	}

	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			utils.TransactionLabel(tx.ID),
			tx.Date.Format(dateLayout),
			utils.FormatRupiah(tx.Total),
			utils.PaidLabel(tx.Paid),
		})
	}
	return e.render(t, rows)
}

func (e *Exporter) render(t table, rows [][]string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", t.titleSize)
	pdf.CellFormat(0, 10, tr(t.title), "", 1, "C", false, 0, "")
	pdf.Ln(t.gap)

	pdf.SetFontSize(t.bodySize)
	for i, col := range t.columns {
		pdf.CellFormat(col.width, t.rowHeight, col.header, "1", lineBreak(i, len(t.columns)), "C", false, 0, "")
	}

	pdf.SetFillColor(t.fill[0], t.fill[1], t.fill[2])
	for _, row := range rows {
		for i, col := range t.columns {
			pdf.CellFormat(col.width, t.rowHeight, tr(row[i]), "1", lineBreak(i, len(t.columns)), col.align, true, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error rendering %q: %w", t.title, err)
	}
	return buf.Bytes(), nil
}

func lineBreak(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
