package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createProducts creates a products table with name, price and stock columns.
func createProducts(t *testing.T, s *Store) {
	t.Helper()
	err := s.CreateTable(context.Background(), "products", []ColumnDef{
		{Name: "name", Type: "TEXT", NotNull: true},
		{Name: "price", Type: "REAL"},
		{Name: "stock", Type: "TEXT"},
	})
	if err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}
}
