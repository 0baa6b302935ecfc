// Package report renders ticket statistics and ticket details as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/i18n"
)

const (
	pageWidth   = 190.0
	lineHeight  = 7.0
	countColumn = 30.0
	dateLayout  = "2006-01-02 15:04"
)

type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	loc domain.Locale
}

func newDocument(title string, loc domain.Locale, generatedAt time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("helpdesk", true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), loc: loc}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pageWidth, 10, d.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(pageWidth, 6, d.tr(fmt.Sprintf("%s: %s", i18n.T(loc, i18n.KeyGeneratedAt), generatedAt.Format(dateLayout))), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	return d
}

func (d *document) heading(text string) {
	d.pdf.SetFont("Helvetica", "B", 13)
	d.pdf.SetFillColor(37, 99, 235)
	d.pdf.SetTextColor(255, 255, 255)
	d.pdf.CellFormat(pageWidth, 8, d.tr(text), "", 1, "L", true, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(2)
}

func (d *document) table(title string, rows []domain.CountEntry) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(pageWidth, lineHeight, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	if len(rows) == 0 {
		d.pdf.CellFormat(pageWidth, lineHeight, d.tr(i18n.T(d.loc, i18n.KeyNoData)), "1", 1, "L", false, 0, "")
		d.pdf.Ln(2)
		return
	}
	for i, row := range rows {
		fill := i%2 == 0
		d.pdf.SetFillColor(243, 244, 246)
		d.pdf.CellFormat(pageWidth-countColumn, lineHeight, d.tr(row.Label), "1", 0, "L", fill, 0, "")
		d.pdf.CellFormat(countColumn, lineHeight, strconv.FormatInt(row.Count, 10), "1", 1, "R", fill, 0, "")
	}
	d.pdf.Ln(3)
}

func (d *document) field(label, value string) {
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.CellFormat(50, lineHeight, d.tr(label+":"), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(pageWidth-50, lineHeight, d.tr(value), "", "L", false)
}

func (d *document) paragraph(label, text string) {
	d.pdf.Ln(2)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(pageWidth, lineHeight, d.tr(label), "", 1, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(pageWidth, 6, d.tr(text), "1", "L", false)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderStats draws the weekly window followed by the all-time totals.
func RenderStats(stats domain.TicketStats, windowDays int, loc domain.Locale) ([]byte, error) {
	loc = loc.OrDefault()
	d := newDocument(i18n.T(loc, i18n.KeyWeeklyReportTitle), loc, stats.GeneratedAt)

	d.heading(fmt.Sprintf(i18n.T(loc, i18n.KeyWindowSection), windowDays) +
		fmt.Sprintf(" (%s - %s)", stats.WindowStart.Format("2006-01-02"), stats.GeneratedAt.Format("2006-01-02")))
	d.breakdown(stats.Window)

	d.heading(i18n.T(loc, i18n.KeyAllTimeSection))
	d.breakdown(stats.AllTime)
	return d.bytes()
}

func (d *document) breakdown(b domain.TicketBreakdown) {
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(pageWidth, lineHeight, d.tr(fmt.Sprintf("%s: %d", i18n.T(d.loc, i18n.KeyTotal), b.Total)), "", 1, "L", false, 0, "")
	d.pdf.Ln(1)
	d.table(i18n.T(d.loc, i18n.KeyByStatus), b.ByStatus)
	d.table(i18n.T(d.loc, i18n.KeyByDepartment), b.ByDepartment)
	d.table(i18n.T(d.loc, i18n.KeyTopUsers), b.TopUsers)
	d.table(i18n.T(d.loc, i18n.KeyByReason), b.ByReason)
	d.table(i18n.T(d.loc, i18n.KeyByPriority), b.ByPriority)
}

// RenderTicket draws the detail sheet of one ticket.
func RenderTicket(detail *domain.TicketDetail, loc domain.Locale, generatedAt time.Time) ([]byte, error) {
	loc = loc.OrDefault()
	d := newDocument(fmt.Sprintf("%s #%d", i18n.T(loc, i18n.KeyTicketReportTitle), detail.ID), loc, generatedAt)
	na := i18n.T(loc, i18n.KeyNotAvailable)

	reason := i18n.T(loc, i18n.KeyNoReason)
	if label := detail.ReasonLabel(loc); label != nil {
		reason = *label
	}
	closedAt := na
	if detail.ClosedAt != nil {
		closedAt = detail.ClosedAt.Format(dateLayout)
	}

	d.field(i18n.T(loc, i18n.KeyTicket), fmt.Sprintf("#%d", detail.ID))
	d.field(i18n.T(loc, i18n.KeySubject), detail.Subject)
	d.field(i18n.T(loc, i18n.KeyCreatedBy), detail.CreatorName)
	d.field(i18n.T(loc, i18n.KeyDepartment), detail.DepartmentName)
	d.field(i18n.T(loc, i18n.KeyReason), reason)
	d.field(i18n.T(loc, i18n.KeyStatus), detail.Status.Label(loc))
	d.field(i18n.T(loc, i18n.KeyPriority), detail.Priority.Label(loc))
	d.field(i18n.T(loc, i18n.KeyCreatedAt), detail.CreatedAt.Format(dateLayout))
	d.field(i18n.T(loc, i18n.KeyClosedAt), closedAt)

	d.paragraph(i18n.T(loc, i18n.KeyBody), detail.Body)
	resolution := na
	if detail.ResolutionText != nil {
		resolution = *detail.ResolutionText
	}
	d.paragraph(i18n.T(loc, i18n.KeyResolution), resolution)
	if len(detail.ResolutionImages) > 0 {
		d.paragraph(i18n.T(loc, i18n.KeyResolutionImages), strings.Join(detail.ResolutionImages, "\n"))
	}
	return d.bytes()
}
