package main

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10  // Margin in mm
	pdfLineHeight = 5   // Line height in mm
	pdfFontSize   = 9
	pdfLangWidth  = 35 // width of the language column in mm
)

// listingReport is what a `list --pdf` run writes out.
type listingReport struct {
	Root      string
	Extension string
	Elapsed   string
	Files     []string
	Skipped   []*SkipError
}

// generatePDF renders the discovered paths, one per row with the language chroma
// associates with the file name, followed by a summary.
func generatePDF(report listingReport, outputPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	contentWidth := float64(pdfPageWidth - 2*pdfMargin)

	pdf.SetFont("Helvetica", "B", pdfFontSize+4)
	pdf.MultiCell(contentWidth, pdfLineHeight+2, fmt.Sprintf("*.%s under %s", report.Extension, report.Root), "", "L", false)
	pdf.Ln(pdfLineHeight / 2)

	pdf.SetFont("Helvetica", "B", pdfFontSize)
	pdf.CellFormat(contentWidth-pdfLangWidth, pdfLineHeight, "Path", "B", 0, "L", false, 0, "")
	pdf.CellFormat(pdfLangWidth, pdfLineHeight, "Language", "B", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "", pdfFontSize)
	for _, file := range report.Files {
		pdf.CellFormat(contentWidth-pdfLangWidth, pdfLineHeight, displayPath(report.Root, file), "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfLangWidth, pdfLineHeight, languageFor(file), "", 1, "L", false, 0, "")
	}

	pdf.Ln(pdfLineHeight)
	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.MultiCell(contentWidth, pdfLineHeight, "--- Summary ---", "", "L", false)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	summary := fmt.Sprintf("%d files found in %s", len(report.Files), report.Elapsed)
	if len(report.Skipped) > 0 {
		summary += fmt.Sprintf("\n%d unreadable paths skipped", len(report.Skipped))
	}
	pdf.MultiCell(contentWidth, pdfLineHeight, summary, "", "L", false)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}
	return nil
}

// languageFor names the language chroma matches for the file name, or "-".
func languageFor(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return "-"
	}
	return lexer.Config().Name
}
