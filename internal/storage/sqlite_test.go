package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestContextAbsentOnFreshStore(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetContext()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetContext on fresh store: err = %v, want ErrNotFound", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := DocumentContext{
		Kind:    ContextKindText,
		Content: "HELLO",
		Name:    "pasted text",
	}
	if err := s.SetContext(in); err != nil {
		t.Fatalf("SetContext: %v", err)
	}

	got, err := s.GetContext()
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.Kind != ContextKindText {
		t.Errorf("Kind = %q, want %q", got.Kind, ContextKindText)
	}
	if got.Content != "HELLO" {
		t.Errorf("Content = %q, want %q", got.Content, "HELLO")
	}
	if got.MimeType != "" {
		t.Errorf("MimeType = %q, want empty for text context", got.MimeType)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestContextReplaceOnSet(t *testing.T) {
	s := openTestStore(t)

	first := DocumentContext{Kind: ContextKindText, Content: "v1", Name: "first"}
	if err := s.SetContext(first); err != nil {
		t.Fatalf("SetContext first: %v", err)
	}

	second := DocumentContext{
		Kind:     ContextKindFile,
		Content:  "JVBERi0xLjQ=",
		MimeType: "application/pdf",
		Name:     "annex.pdf",
	}
	if err := s.SetContext(second); err != nil {
		t.Fatalf("SetContext second: %v", err)
	}

	got, err := s.GetContext()
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if got.Name != "annex.pdf" || got.Kind != ContextKindFile {
		t.Errorf("context not replaced: got %+v", got)
	}
	if got.MimeType != "application/pdf" {
		t.Errorf("MimeType = %q, want application/pdf", got.MimeType)
	}
}

func TestContextClear(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetContext(DocumentContext{Kind: ContextKindText, Content: "x", Name: "n"}); err != nil {
		t.Fatalf("SetContext: %v", err)
	}
	if err := s.ClearContext(); err != nil {
		t.Fatalf("ClearContext: %v", err)
	}
	if _, err := s.GetContext(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetContext after clear: err = %v, want ErrNotFound", err)
	}

	// Clearing twice is not an error.
	if err := s.ClearContext(); err != nil {
		t.Fatalf("second ClearContext: %v", err)
	}
}

func testEntry(id string) ManualEntry {
	return ManualEntry{
		ID:          id,
		Code:        "7317.00.30",
		Category:    "Steel Derivative",
		Description: "nails, tacks and staples",
		MetalType:   "Steel",
	}
}

func TestSaveAndListEntries(t *testing.T) {
	s := openTestStore(t)

	e := testEntry("entry-1")
	if err := s.SaveEntry(e); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.ID != "entry-1" || got.Code != e.Code || got.Category != e.Category || got.Description != e.Description || got.MetalType != e.MetalType {
		t.Errorf("entry round trip mismatch: %+v", got)
	}
}

func TestSaveEntryUpsertPreservesID(t *testing.T) {
	s := openTestStore(t)

	e := testEntry("entry-1")
	if err := s.SaveEntry(e); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	e.Category = "Aluminum Derivative"
	e.MetalType = "Aluminum"
	if err := s.SaveEntry(e); err != nil {
		t.Fatalf("SaveEntry update: %v", err)
	}

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d after update, want 1", len(entries))
	}
	if entries[0].ID != "entry-1" {
		t.Errorf("ID changed across update: %q", entries[0].ID)
	}
	if entries[0].Category != "Aluminum Derivative" || entries[0].MetalType != "Aluminum" {
		t.Errorf("update not applied: %+v", entries[0])
	}
}

func TestListEntriesOrder(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		e := testEntry(fmt.Sprintf("entry-%d", i))
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveEntry(e); err != nil {
			t.Fatalf("SaveEntry %d: %v", i, err)
		}
	}

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("entry-%d", i)
		if e.ID != want {
			t.Errorf("entries[%d].ID = %q, want %q", i, e.ID, want)
		}
	}
}

func TestDeleteEntry(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveEntry(testEntry("keep")); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if err := s.SaveEntry(testEntry("drop")); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if err := s.DeleteEntry("drop"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "keep" {
		t.Errorf("wrong entry deleted: %+v", entries)
	}

	if err := s.DeleteEntry("drop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEntry unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestGetEntry(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetEntry("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetEntry missing: err = %v, want ErrNotFound", err)
	}

	if err := s.SaveEntry(testEntry("entry-1")); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	got, err := s.GetEntry("entry-1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.Code != "7317.00.30" {
		t.Errorf("Code = %q, want 7317.00.30", got.Code)
	}
}

func TestCountEntries(t *testing.T) {
	s := openTestStore(t)

	n, err := s.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}

	if err := s.SaveEntry(testEntry("a")); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if err := s.SaveEntry(testEntry("b")); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	n, err = s.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}
