package ingest

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Grant program guidelines often ship as PDFs with the real deadline
// buried in a schedule table. These regexes pull date-shaped snippets
// out of the extracted text.
var pdfDateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/20\d{2}\b`),
	regexp.MustCompile(`\b20\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+\d{1,2},?\s+20\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+20\d{2}\b`),
}

var deadlineHints = []string{
	"deadline", "due date", "applications close", "applications due",
	"closes", "closing date", "submit by", "must be received",
}

// ExtractDeadlineFromPDF downloads a guidelines PDF and returns the
// most plausible application deadline found in it: the earliest future
// date near deadline language, falling back to the earliest future
// date at all.
func ExtractDeadlineFromPDF(ctx context.Context, fetcher *Fetcher, pdfURL string, now time.Time) (*time.Time, error) {
	content, err := fetcher.Get(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	text, err := extractPDFText(content)
	if err != nil {
		return nil, fmt.Errorf("pdf text extraction failed: %w", err)
	}

	labeled, unlabeled := deadlineCandidates(text, now)
	if len(labeled) > 0 {
		return &labeled[0], nil
	}
	if len(unlabeled) > 0 {
		return &unlabeled[0], nil
	}
	return nil, nil
}

// extractPDFText concatenates the text fragments of every page. The
// parser panics on some malformed PDFs, so the panic is converted into
// an error.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for page := 1; page <= reader.NumPage(); page++ {
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		for _, fragment := range p.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// deadlineCandidates scans text for dates, splitting them by whether
// deadline language appears just before the match. The lookbehind is
// kept short so a schedule table's other entries do not pick up the
// label of an adjacent line. Both lists contain only future dates,
// sorted ascending.
func deadlineCandidates(text string, now time.Time) (labeled, unlabeled []time.Time) {
	seen := make(map[string]bool)
	for _, expr := range pdfDateRegexes {
		for _, loc := range expr.FindAllStringIndex(text, -1) {
			token := strings.TrimSpace(text[loc[0]:loc[1]])
			parsed, err := parseDate(token)
			if err != nil || !parsed.After(now) {
				continue
			}
			key := parsed.Format(time.RFC3339)
			if seen[key] {
				continue
			}
			seen[key] = true

			start := max(loc[0]-40, 0)
			snippet := strings.ToLower(text[start:loc[0]])

			hinted := false
			for _, hint := range deadlineHints {
				if strings.Contains(snippet, hint) {
					hinted = true
					break
				}
			}
			if hinted {
				labeled = append(labeled, parsed)
			} else {
				unlabeled = append(unlabeled, parsed)
			}
		}
	}

	sort.Slice(labeled, func(i, j int) bool { return labeled[i].Before(labeled[j]) })
	sort.Slice(unlabeled, func(i, j int) bool { return unlabeled[i].Before(unlabeled[j]) })
	return labeled, unlabeled
}
