package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCommentAddAndDelete(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db)
	comments := NewCommentService(db)
	author := createUser(t, db, "author@example.com")
	reader := createUser(t, db, "reader@example.com")

	post, err := posts.Create(author.ID, "Discussion", "Body.", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	comment, err := comments.Add(post.ID, reader.ID, "  Great read.  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.Content != "Great read." {
		t.Fatalf("content not trimmed: %q", comment.Content)
	}

	reloaded, err := posts.GetByID(post.ID)
	if err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.CommentCount != 1 {
		t.Fatalf("comment count = %d, want 1", reloaded.CommentCount)
	}

	if err := comments.Delete(comment.ID, author.ID, false); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("non-author delete should fail, got %v", err)
	}
	if err := comments.Delete(comment.ID, reader.ID, false); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	reloaded, err = posts.GetByID(post.ID)
	if err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if reloaded.CommentCount != 0 {
		t.Fatalf("comment count = %d after delete, want 0", reloaded.CommentCount)
	}
}

func TestCommentOnMissingPost(t *testing.T) {
	db := testDB(t)
	comments := NewCommentService(db)
	reader := createUser(t, db, "reader@example.com")

	if _, err := comments.Add(uuid.New(), reader.ID, "orphan"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestCommentListNewestFirst(t *testing.T) {
	db := testDB(t)
	posts := NewPostService(db)
	comments := NewCommentService(db)
	author := createUser(t, db, "author@example.com")

	post, err := posts.Create(author.ID, "Thread", "Body.", nil)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := comments.Add(post.ID, author.ID, "reply"); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}

	list, total, err := comments.ListForPost(post.ID, 1, 10)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if total != 3 || len(list) != 3 {
		t.Fatalf("list returned %d of %d comments, want 3", len(list), total)
	}
}
