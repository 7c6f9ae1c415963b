package lspserver

import "testing"

func TestDocumentStoreOpenGetClose(t *testing.T) {
	t.Parallel()
	store := NewDocumentStore()

	store.Open("file:///a/Program.cs", "csharp", 1, "class C { }\n")

	doc := store.Get("file:///a/Program.cs")
	if doc == nil {
		t.Fatal("Get returned nil for an open document")
	}
	if doc.LanguageID != "csharp" || doc.Version != 1 || doc.Content != "class C { }\n" {
		t.Errorf("unexpected document: %+v", doc)
	}

	store.Close("file:///a/Program.cs")
	if store.Get("file:///a/Program.cs") != nil {
		t.Error("Get returned a document after Close")
	}
}

func TestDocumentStoreUpdate(t *testing.T) {
	t.Parallel()
	store := NewDocumentStore()
	store.Open("file:///a/Program.cs", "csharp", 1, "v1")

	store.Update("file:///a/Program.cs", 2, "v2")
	doc := store.Get("file:///a/Program.cs")
	if doc.Version != 2 || doc.Content != "v2" {
		t.Errorf("after update: %+v", doc)
	}

	// didSave passes version 0; the stored version must survive.
	store.Update("file:///a/Program.cs", 0, "saved")
	doc = store.Get("file:///a/Program.cs")
	if doc.Version != 2 || doc.Content != "saved" {
		t.Errorf("after version-0 update: %+v", doc)
	}
}

func TestDocumentStoreUpdateUnopenedDropped(t *testing.T) {
	t.Parallel()
	store := NewDocumentStore()
	store.Update("file:///never/opened.cs", 1, "text")
	if store.Get("file:///never/opened.cs") != nil {
		t.Error("Update created a document that was never opened")
	}
}

func TestDocumentStoreSnapshotImmutable(t *testing.T) {
	t.Parallel()
	store := NewDocumentStore()
	store.Open("file:///a/Program.cs", "csharp", 1, "before")

	snapshot := store.Get("file:///a/Program.cs")
	store.Update("file:///a/Program.cs", 2, "after")

	if snapshot.Content != "before" || snapshot.Version != 1 {
		t.Errorf("snapshot mutated by Update: %+v", snapshot)
	}
}

func TestDocumentStoreAllSorted(t *testing.T) {
	t.Parallel()
	store := NewDocumentStore()
	store.Open("file:///b.cs", "csharp", 1, "")
	store.Open("file:///a.cs", "csharp", 1, "")
	store.Open("file:///c.cs", "csharp", 1, "")

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d documents, want 3", len(all))
	}
	want := []string{"file:///a.cs", "file:///b.cs", "file:///c.cs"}
	for i, doc := range all {
		if doc.URI != want[i] {
			t.Errorf("All()[%d].URI = %q, want %q", i, doc.URI, want[i])
		}
	}
}
