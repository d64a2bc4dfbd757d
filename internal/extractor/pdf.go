// Package extractor turns a statement PDF into the ordered sequence of
// standardized transaction rows the rest of the pipeline consumes.
//
// Page text comes from a layered set of extraction methods: the structured
// PDF library first (coordinate-based column reconstruction, then row and
// plain-text methods), the external pdftotext command next, and OCR as the
// last resort for scanned statements. Each layer's output is gated on a
// readability check so garbage from identity-encoded fonts never reaches the
// parsers.
package extractor

import (
	"fmt"
	"io"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// columnGap is the horizontal distance (in PDF text-space units) treated as
// a column boundary when reconstructing rows from positioned text.
const columnGap = 15

// ExtractPages reads a PDF and returns the text of each page, with runs of
// two or more spaces marking column boundaries where the source provided
// positioning information.
func ExtractPages(filePath string) ([]string, error) {
	pages, libErr := extractWithLibrary(filePath)
	if libErr == nil && isReadable(pages) {
		return pages, nil
	}

	if pages, err := extractWithPdftotext(filePath); err == nil && isReadable(pages) {
		return pages, nil
	}

	if pages, err := extractWithOCR(filePath); err == nil && isReadable(pages) {
		return pages, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %v. The statement may be image-based or use custom font encodings", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from the PDF; the statement may be image-based or use custom font encodings")
}

func extractWithLibrary(filePath string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Positioned text preserves the table columns, so try it first.
	pages = extractPositioned(r, numPages)
	if isReadable(pages) {
		return pages, nil
	}

	pages = extractRows(r, numPages)
	if isReadable(pages) {
		return pages, nil
	}

	pages = extractPlain(r, numPages)
	if isReadable(pages) {
		return pages, nil
	}

	text := extractWholeDocument(r)
	if isReadable([]string{text}) {
		return []string{text}, nil
	}

	return pages, nil
}

// extractPositioned reconstructs each page from positioned text fragments:
// fragments are grouped into rows by Y coordinate, ordered by X, and a wide
// horizontal gap becomes a double-space column separator.
func extractPositioned(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type fragment struct {
			x float64
			s string
		}
		rowMap := make(map[int][]fragment)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], fragment{x: t.X, s: t.S})
		}

		// PDF Y runs bottom-to-top.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			frags := rowMap[y]
			sort.Slice(frags, func(a, b int) bool {
				return frags[a].x < frags[b].x
			})

			var parts []string
			var prevX float64
			for j, frag := range frags {
				if j > 0 && frag.x-prevX > columnGap {
					parts = append(parts, "  ")
				}
				parts = append(parts, frag.s)
				prevX = frag.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractRows(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractPlain(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font)
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func extractWholeDocument(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// extractWithPdftotext shells out to poppler's pdftotext, whose -layout mode
// preserves columns as runs of spaces.
func extractWithPdftotext(filePath string) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %v", err)
	}

	numPages := pdfinfoPageCount(filePath)
	if numPages == 0 {
		numPages = 1
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		pageStr := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", pageStr, "-l", pageStr, filePath, "-").Output()
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		out, err := exec.Command("pdftotext", "-layout", filePath, "-").Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %v", err)
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			return []string{text}, nil
		}
		return nil, fmt.Errorf("pdftotext produced no output")
	}

	return pages, nil
}

func pdfinfoPageCount(filePath string) int {
	out, err := exec.Command("pdfinfo", filePath).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Pages:") {
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); err == nil {
				return n
			}
		}
	}
	return 0
}

// statementWords appear in virtually every bank statement. Extracted text
// containing none of them is treated as garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "statement", "description",
	"withdrawal", "deposit", "debit", "credit", "transaction", "txn",
	"reference", "cheque", "branch", "transfer", "total", "page", "period",
}

// isReadable gates extracted text: enough of it, mostly ASCII-readable, and
// containing at least one recognizable statement word. Accented characters do
// not count as readable; they dominate garbage from identity-encoded fonts.
func isReadable(pages []string) bool {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"%&@#!?+=*`, r) ||
				r == '£' || r == '$' || r == '€' {
				readable++
			}
		}
	}
	if total <= 50 {
		return false
	}
	if float64(readable)/float64(total) <= 0.6 {
		return false
	}

	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}
