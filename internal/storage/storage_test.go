package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/readiness/internal/models"
)

func newTestStorage(t *testing.T, maxReports int) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "reports.db"), maxReports)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// clock returns a fake time source starting an hour ago, advanced by step per call
func clock(step time.Duration) func() time.Time {
	now := time.Now().Add(-time.Hour)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestStorage_RecordAndLatest(t *testing.T) {
	s := newTestStorage(t, 100)
	s.now = clock(time.Second)
	ctx := context.Background()

	first, err := s.Record(ctx, models.ReportKindSummary, "first body")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if first.ID == "" || first.Digest != Digest("first body") {
		t.Errorf("unexpected report %+v", first)
	}
	if _, err := s.Record(ctx, models.ReportKindSummary, "second body"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := s.Record(ctx, models.ReportKindExtremes, "extremes body"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	latest, err := s.Latest(ctx, models.ReportKindSummary)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Body != "second body" {
		t.Errorf("expected newest summary, got %q", latest.Body)
	}

	summaries, err := s.List(ctx, models.ReportKindSummary, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 || summaries[1].ID != first.ID {
		t.Errorf("expected 2 summaries newest first, got %+v", summaries)
	}

	all, err := s.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].Kind != models.ReportKindExtremes {
		t.Errorf("unexpected limited list %+v", all)
	}
}

func TestStorage_LatestNotFound(t *testing.T) {
	s := newTestStorage(t, 100)
	if _, err := s.Latest(context.Background(), models.ReportKindExtremes); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_RecordRejectsInvalid(t *testing.T) {
	s := newTestStorage(t, 100)
	if _, err := s.Record(context.Background(), "explorer", "body"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := s.Record(context.Background(), models.ReportKindSummary, ""); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestStorage_SentWithin(t *testing.T) {
	s := newTestStorage(t, 100)
	base := time.Now().Add(-2 * time.Hour)
	now := base
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := s.Record(ctx, models.ReportKindSummary, "same text"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	now = base.Add(30 * time.Minute)
	sent, err := s.SentWithin(ctx, Digest("same text"), time.Hour)
	if err != nil {
		t.Fatalf("SentWithin failed: %v", err)
	}
	if !sent {
		t.Error("expected digest to be found inside the window")
	}

	now = base.Add(90 * time.Minute)
	sent, _ = s.SentWithin(ctx, Digest("same text"), time.Hour)
	if sent {
		t.Error("expected digest to be outside the window")
	}

	sent, _ = s.SentWithin(ctx, Digest("other text"), time.Hour)
	if sent {
		t.Error("unknown digest should not be found")
	}
}

func TestStorage_Rotate(t *testing.T) {
	s := newTestStorage(t, 3)
	s.now = clock(time.Second)
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three", "four", "five"} {
		if _, err := s.Record(ctx, models.ReportKindSummary, body); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	reports, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports after rotation, got %d", len(reports))
	}
	if reports[0].Body != "five" || reports[2].Body != "three" {
		t.Errorf("rotation kept the wrong reports: %q..%q", reports[0].Body, reports[2].Body)
	}
}

func TestStorage_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reports.db")
	s, err := New(path, 100)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.Record(context.Background(), models.ReportKindSummary, "persisted"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(path, 100)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	latest, err := reopened.Latest(context.Background(), models.ReportKindSummary)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Body != "persisted" {
		t.Errorf("expected persisted report, got %q", latest.Body)
	}
}

func TestStorage_Dump(t *testing.T) {
	s := newTestStorage(t, 100)
	s.now = clock(time.Second)
	ctx := context.Background()

	for _, body := range []string{"a", "b"} {
		if _, err := s.Record(ctx, models.ReportKindExtremes, body); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "dump", "reports.json")
	if err := s.Dump(ctx, path); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after dump")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read dump: %v", err)
	}
	var dump DumpFile
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("failed to decode dump: %v", err)
	}
	if len(dump.Reports) != 2 || dump.Reports[0].Body != "b" {
		t.Errorf("unexpected dump contents %+v", dump.Reports)
	}
}
