package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

func TestDocumentBasics(t *testing.T) {
	// Create in-memory repositories
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Test adding a document
	doc := &core.Document{
		Filename:  "guide.md",
		Title:     "User Guide",
		Author:    "docs team",
		Type:      "md",
		Category:  "documentation",
		Tags:      []string{"guide", "onboarding"},
		CreatedAt: time.Now().UTC(),
	}

	added, err := docRepo.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	// Test retrieving the document
	retrieved, err := docRepo.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}

	if retrieved.Filename != "guide.md" {
		t.Fatalf("Expected 'guide.md', got '%s'", retrieved.Filename)
	}
	if retrieved.Category != "documentation" {
		t.Fatalf("Expected 'documentation', got '%s'", retrieved.Category)
	}
	if len(retrieved.Tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(retrieved.Tags))
	}
}

func TestDocumentValidation(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// Empty filename is rejected
	_, err = docRepo.AddDocument(ctx, &core.Document{CreatedAt: time.Now().UTC()})
	if !errors.Is(err, core.ErrInvalidDocument) {
		t.Fatalf("Expected ErrInvalidDocument, got %v", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = docRepo.GetDocument(ctx, 99999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetDocumentsSkipsMissing(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := docRepo.AddDocument(ctx, &core.Document{
		Filename:  "present.txt",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	docs, err := docRepo.GetDocuments(ctx, added.Id, 99999)
	if err != nil {
		t.Fatalf("Failed to get documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
	if docs[0].Id != added.Id {
		t.Fatalf("Expected id %d, got %d", added.Id, docs[0].Id)
	}
}

func TestListDocumentsFilters(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	docs := []*core.Document{
		{Filename: "a.md", Type: "md", Tags: []string{"api"}, CreatedAt: now.Add(-3 * time.Hour)},
		{Filename: "b.txt", Type: "txt", Tags: []string{"guide"}, CreatedAt: now.Add(-2 * time.Hour)},
		{Filename: "c.md", Type: "md", Tags: []string{"api", "guide"}, CreatedAt: now.Add(-1 * time.Hour)},
	}
	for _, doc := range docs {
		if _, err := docRepo.AddDocument(ctx, doc); err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
	}
	if err := docRepo.MarkIndexed(ctx, docs[0].Id); err != nil {
		t.Fatalf("Failed to mark indexed: %v", err)
	}

	// No filters: everything, newest first
	all, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(all))
	}
	if all[0].Filename != "c.md" || all[2].Filename != "a.md" {
		t.Fatalf("Expected newest-first order, got %s..%s", all[0].Filename, all[2].Filename)
	}

	// Filter by type
	mds, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{Types: []string{"md"}})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(mds) != 2 {
		t.Fatalf("Expected 2 md documents, got %d", len(mds))
	}

	// Filter by tag: any match counts
	guides, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{Tags: []string{"guide"}})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(guides) != 2 {
		t.Fatalf("Expected 2 guide documents, got %d", len(guides))
	}

	// Filter by indexed state
	indexed, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{IndexedOnly: true})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(indexed) != 1 || indexed[0].Filename != "a.md" {
		t.Fatalf("Expected only a.md indexed, got %d results", len(indexed))
	}

	// Filter by date range
	recent, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{
		After:  now.Add(-150 * time.Minute),
		Before: now.Add(-30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 documents in range, got %d", len(recent))
	}

	// Filter by explicit IDs
	byId, err := docRepo.ListDocuments(ctx, storage.DocumentFilters{Ids: []core.ID{docs[1].Id}})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(byId) != 1 || byId[0].Filename != "b.txt" {
		t.Fatalf("Expected only b.txt, got %d results", len(byId))
	}
}

func TestMarkIndexed(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := docRepo.AddDocument(ctx, &core.Document{
		Filename:  "pending.txt",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if added.Indexed {
		t.Fatal("Expected new document to be unindexed")
	}

	if err := docRepo.MarkIndexed(ctx, added.Id); err != nil {
		t.Fatalf("Failed to mark indexed: %v", err)
	}

	retrieved, err := docRepo.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if !retrieved.Indexed {
		t.Fatal("Expected document to be indexed")
	}

	// Missing document reports not found
	err = docRepo.MarkIndexed(ctx, 99999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := docRepo.AddDocument(ctx, &core.Document{
		Filename:  "doomed.txt",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := docRepo.DeleteDocument(ctx, added.Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	_, err = docRepo.GetDocument(ctx, added.Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	count, err := docRepo.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to count documents: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 documents, got %d", count)
	}

	// Deleting again reports not found
	err = docRepo.DeleteDocument(ctx, added.Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCountDocuments(t *testing.T) {
	docRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := docRepo.AddDocument(ctx, &core.Document{
			Filename:  "file.txt",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
	}

	count, err := docRepo.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to count documents: %v", err)
	}
	if count != 5 {
		t.Fatalf("Expected 5 documents, got %d", count)
	}
}
