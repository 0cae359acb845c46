package ingest

import (
	"testing"
	"time"
)

func TestDeadlineCandidatesPrefersLabeledDates(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	text := `Program opens September 15, 2026. Information session October 1, 2026.
Application deadline: November 20, 2026. Awards announced January 15, 2027.`

	labeled, unlabeled := deadlineCandidates(text, now)
	if len(labeled) != 1 {
		t.Fatalf("labeled = %v", labeled)
	}
	if labeled[0].Month() != time.November || labeled[0].Day() != 20 {
		t.Fatalf("wrong labeled date: %v", labeled[0])
	}
	if len(unlabeled) != 3 {
		t.Fatalf("unlabeled = %v", unlabeled)
	}
	if !unlabeled[0].Before(unlabeled[1]) || !unlabeled[1].Before(unlabeled[2]) {
		t.Fatal("unlabeled dates not sorted ascending")
	}
}

func TestDeadlineCandidatesIgnoresPastDates(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	text := "Applications were due 03/15/2026."

	labeled, unlabeled := deadlineCandidates(text, now)
	if len(labeled) != 0 || len(unlabeled) != 0 {
		t.Fatalf("past dates must be dropped: %v %v", labeled, unlabeled)
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	if _, err := extractPDFText([]byte("this is not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF content")
	}
}
