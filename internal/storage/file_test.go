package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "tgsched/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "None"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q): got a store, want nil", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileHistoryRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sched.db")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	base := time.Now().Truncate(time.Millisecond)
	entries := []HistoryEntry{
		{At: base, JobID: "job-1", ChatID: 42, Label: "ops", Outcome: "delivered"},
		{At: base.Add(time.Second), JobID: "job-2", ChatID: 42, TopicID: 7, Label: "ops / infra", Outcome: "failed", Category: "telebot.Error"},
		{At: base.Add(2 * time.Second), JobID: "job-3", ChatID: 99, Label: "dev", Outcome: "cancelled"},
	}
	for _, e := range entries {
		if err := st.AppendHistory(ctx, e); err != nil {
			t.Fatalf("AppendHistory(%s): %v", e.JobID, err)
		}
	}

	got, err := st.RecentHistory(ctx, 10)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentHistory returned %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].JobID != "job-3" || got[2].JobID != "job-1" {
		t.Fatalf("order = [%s %s %s]", got[0].JobID, got[1].JobID, got[2].JobID)
	}
	if got[1].Outcome != "failed" || got[1].Category != "telebot.Error" || got[1].TopicID != 7 {
		t.Fatalf("failed entry = %+v", got[1])
	}
	if !got[2].At.Equal(base) {
		t.Fatalf("At = %v, want %v", got[2].At, base)
	}
}

func TestFileHistoryLimit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sched.db")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		e := HistoryEntry{
			At:      time.Now().Add(time.Duration(i) * time.Second),
			JobID:   "job",
			ChatID:  1,
			Label:   "x",
			Outcome: "delivered",
		}
		if err := st.AppendHistory(ctx, e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	got, err := st.RecentHistory(ctx, 3)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestFileHistoryEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sched.db")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	got, err := st.RecentHistory(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries from empty store", len(got))
	}
}
