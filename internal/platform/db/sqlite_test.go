package db

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pollster.db")
	handle, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = handle.Close() }()

	var one int
	if err := handle.DB.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("expected working handle, got %d err=%v", one, err)
	}
}

func TestConnectRequiresDSN(t *testing.T) {
	if _, err := Connect(""); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestCloseNilHandle(t *testing.T) {
	var handle *Postgres
	if err := handle.Close(); err != nil {
		t.Fatalf("close nil handle: %v", err)
	}
}
