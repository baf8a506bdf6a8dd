package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewStoreWithPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stats.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestIncrement(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStoreWithPath(filepath.Join(tmpDir, "test_stats.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Increment(ModeToolCall); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	count, err := store.GetCountByDate(ModeToolCall, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	if err := store.Increment(ModeToolCall); err != nil {
		t.Fatalf("Second increment failed: %v", err)
	}

	count, err = store.GetCountByDate(ModeToolCall, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestGetTotalByMode(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStoreWithPath(filepath.Join(tmpDir, "test_stats.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	for i := 0; i < 5; i++ {
		if err := store.Increment(ModeToolCall); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := store.Increment(ModeSearch); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	total, err := store.GetTotalByMode(ModeToolCall)
	if err != nil {
		t.Fatalf("GetTotalByMode failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected tool_call total 5, got %d", total)
	}

	total, err = store.GetTotalByMode(ModeSearch)
	if err != nil {
		t.Fatalf("GetTotalByMode failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected search total 3, got %d", total)
	}
}

func TestGetAllTotals(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStoreWithPath(filepath.Join(tmpDir, "test_stats.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Increment(ModeToolCall); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := store.Increment(ModeExchange); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	totals, err := store.GetAllTotals()
	if err != nil {
		t.Fatalf("GetAllTotals failed: %v", err)
	}

	if totals[ModeToolCall] != 1 {
		t.Errorf("Expected tool_call total 1, got %d", totals[ModeToolCall])
	}
	if totals[ModeExchange] != 1 {
		t.Errorf("Expected exchange total 1, got %d", totals[ModeExchange])
	}
	if totals[ModeSearch] != 0 {
		t.Errorf("Expected search total 0, got %d", totals[ModeSearch])
	}
}

func TestGetCountByDateNoRows(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStoreWithPath(filepath.Join(tmpDir, "test_stats.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	count, err := store.GetCountByDate(ModeSearch, "1999-01-01")
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0 for missing date, got %d", count)
	}
}
