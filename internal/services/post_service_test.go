package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/models"
)

func TestPostLifecycle(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db)
	author := createUser(t, db, "author@example.com")
	other := createUser(t, db, "other@example.com")

	post, err := svc.Create(author.ID, "  On Reading Slowly  ", "Some thoughts.", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Title != "On Reading Slowly" {
		t.Fatalf("title not trimmed: %q", post.Title)
	}

	newTitle := "On Reading Slowly, Revisited"
	if _, err := svc.Update(post.ID, other.ID, &newTitle, nil, nil); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("non-author update should fail, got %v", err)
	}
	updated, err := svc.Update(post.ID, author.ID, &newTitle, nil, nil)
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	if updated.Title != newTitle {
		t.Fatalf("title = %q", updated.Title)
	}

	if err := svc.Delete(post.ID, other.ID, false); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("non-author delete should fail, got %v", err)
	}
	if err := svc.Delete(post.ID, author.ID, false); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := svc.GetByID(post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("deleted post should be gone, got %v", err)
	}
}

func TestPostCreateBumpsCategoryUsage(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db)
	categories := NewCategoryService(db)
	author := createUser(t, db, "author@example.com")

	cat, err := categories.Create(author.ID, "Fiction", "", "#ff0000", "book")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	post, err := posts.Create(author.ID, "A Story", "Once upon a time.", []uuid.UUID{cat.ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(post.Categories) != 1 || post.Categories[0].ID != cat.ID {
		t.Fatalf("post categories = %+v", post.Categories)
	}

	var reloaded models.Category
	if err := db.First(&reloaded, "id = ?", cat.ID).Error; err != nil {
		t.Fatalf("reload category: %v", err)
	}
	if reloaded.UsageCount != 1 {
		t.Fatalf("usage count = %d, want 1", reloaded.UsageCount)
	}
}

func TestToggleLike(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db)
	author := createUser(t, db, "author@example.com")
	reader := createUser(t, db, "reader@example.com")

	post, err := svc.Create(author.ID, "Likeable", "Content.", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	liked, count, err := svc.ToggleLike(post.ID, reader.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !liked || count != 1 {
		t.Fatalf("first toggle liked=%v count=%d", liked, count)
	}

	liked, count, err = svc.ToggleLike(post.ID, reader.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if liked || count != 0 {
		t.Fatalf("second toggle liked=%v count=%d", liked, count)
	}
}

func TestPostSearch(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db)
	author := createUser(t, db, "author@example.com")

	for _, title := range []string{"Go Concurrency Patterns", "Reading Rilke", "Go Generics in Practice"} {
		if _, err := svc.Create(author.ID, title, "Body text.", nil); err != nil {
			t.Fatalf("create post %q: %v", title, err)
		}
	}

	results, total, err := svc.Search("GO", 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("search matched %d posts (%d rows), want 2", total, len(results))
	}
}

func TestFeedPagination(t *testing.T) {
	db := testDB(t)
	svc := NewPostService(db)
	author := createUser(t, db, "author@example.com")

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(author.ID, "Post", "Body.", nil); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	posts, total, err := svc.Feed(2, 2, nil, nil)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(posts) != 2 {
		t.Fatalf("page size = %d, want 2", len(posts))
	}
}
