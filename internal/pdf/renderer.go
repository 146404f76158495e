package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"civicportal/pkg/types"

	"github.com/go-pdf/fpdf"
)

// Renderer turns a document request into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, req *types.DocumentRequest) ([]byte, error)
}

// Letterhead is the fixed issuing-authority text printed on every document.
type Letterhead struct {
	Municipality   string
	Office         string
	AuthorityLabel string
}

const legalStatement = "This document has been issued electronically by the %s on the basis of the " +
	"data submitted by the applicant and verified by the reviewing officer. It is legally valid " +
	"without a wet-ink signature. Its authenticity can be verified with the reference number above."

const (
	pageMargin  = 20.0
	lineHeight  = 7.0
	labelWidth  = 60.0
	fontFamily  = "Helvetica"
	titleSize   = 14.0
	bodySize    = 10.5
	headingSize = 12.0
)

type FPDFRenderer struct {
	letterhead Letterhead
	now        func() time.Time
}

func NewFPDFRenderer(letterhead Letterhead) *FPDFRenderer {
	return &FPDFRenderer{letterhead: letterhead, now: time.Now}
}

func (r *FPDFRenderer) Render(ctx context.Context, req *types.DocumentRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := layoutFor(req.Type)
	issued := r.now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator(r.letterhead.Office, true)
	pdf.SetCreationDate(issued)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	// Letterhead
	pdf.SetFont(fontFamily, "B", headingSize)
	pdf.CellFormat(contentWidth, lineHeight, tr(strings.ToUpper(r.letterhead.Municipality)), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "B", titleSize)
	pdf.CellFormat(contentWidth, lineHeight, tr(strings.ToUpper(r.letterhead.Office)), "", 1, "C", false, 0, "")
	y := pdf.GetY() + 2
	pdf.SetLineWidth(0.8)
	pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
	pdf.SetLineWidth(0.2)
	pdf.Ln(8)

	// Title
	pdf.SetFont(fontFamily, "BU", titleSize)
	pdf.CellFormat(contentWidth, lineHeight, tr(l.Title), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "I", bodySize)
	pdf.CellFormat(contentWidth, lineHeight, tr(l.Subtitle), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.CellFormat(contentWidth, lineHeight, tr("Reference: "+req.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Fields
	for _, row := range l.Rows(req) {
		pdf.SetFont(fontFamily, "", bodySize)
		pdf.CellFormat(labelWidth, lineHeight, tr(row.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(5, lineHeight, ":", "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "B", bodySize)
		pdf.MultiCell(contentWidth-labelWidth-5, lineHeight, tr(row.Value), "", "L", false)
	}

	if l.List != nil {
		pdf.Ln(3)
		pdf.SetFont(fontFamily, "B", bodySize)
		pdf.CellFormat(contentWidth, lineHeight, tr(l.ListTitle), "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", bodySize)

		entries := l.List(req)
		if len(entries) == 0 {
			pdf.CellFormat(contentWidth, lineHeight, dash, "", 1, "L", false, 0, "")
		}
		for i, entry := range entries {
			pdf.CellFormat(contentWidth, lineHeight, tr(fmt.Sprintf("%d. %s", i+1, entry)), "", 1, "L", false, 0, "")
		}
	}

	// Legal validity
	pdf.Ln(6)
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.MultiCell(contentWidth, 5.5, tr(fmt.Sprintf(legalStatement, r.letterhead.Office)), "", "J", false)
	pdf.Ln(4)
	pdf.CellFormat(contentWidth, lineHeight, tr("Issued on "+issued.Format("02 January 2006")), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	// Signatures
	colWidth := contentWidth / 2
	pdf.CellFormat(colWidth, lineHeight, "Applicant,", "", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, lineHeight, tr(r.letterhead.AuthorityLabel+","), "", 1, "C", false, 0, "")
	pdf.Ln(22)
	pdf.SetFont(fontFamily, "BU", bodySize)
	pdf.CellFormat(colWidth, lineHeight, tr(orDash(req.FullName)), "", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, lineHeight, tr(r.letterhead.AuthorityLabel), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.CellFormat(colWidth, lineHeight, "", "", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, lineHeight, tr(r.letterhead.Office), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s layout: %w", req.Type, err)
	}

	return buf.Bytes(), nil
}
