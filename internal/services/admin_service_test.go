package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/readflowhq/readflow-backend/internal/models"
)

func TestAdminDashboardCounts(t *testing.T) {
	db := testDB(t)
	createAdmin(t, db, "admin@example.com")
	svc := NewAdminService(db, NewCategoryService(db))
	posts := NewPostService(db)
	author := createUser(t, db, "author@example.com")

	if _, err := posts.Create(author.ID, "One", "Body.", nil); err != nil {
		t.Fatalf("create post: %v", err)
	}

	d, err := svc.Dashboard()
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalUsers != 2 || d.ActiveUsers != 2 || d.TotalPosts != 1 {
		t.Fatalf("dashboard = %+v", d)
	}
}

func TestAdminGetUserDetails(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	user := createUser(t, db, "reader@example.com")
	cats := NewCategoryService(db)
	svc := NewAdminService(db, cats)

	cat, err := cats.Create(admin.ID, "Fiction", "", "", "")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.UpdateUser(admin.ID, user.ID, nil, nil, nil, []uuid.UUID{cat.ID}); err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != user.Email {
		t.Fatalf("expected %s, got %s", user.Email, got.Email)
	}
	if len(got.Categories) != 1 || got.Categories[0].Name != "fiction" {
		t.Fatalf("expected fiction subscription, got %+v", got.Categories)
	}

	if _, err := svc.GetUser(uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminCannotTouchAdmins(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	second := createAdmin(t, db, "second@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	if _, err := svc.ToggleUser(admin.ID, second.ID); !errors.Is(err, ErrAdminImmutable) {
		t.Fatalf("toggle admin: expected ErrAdminImmutable, got %v", err)
	}
	name := "renamed"
	if _, err := svc.UpdateUser(admin.ID, second.ID, &name, nil, nil, nil); !errors.Is(err, ErrAdminImmutable) {
		t.Fatalf("update admin: expected ErrAdminImmutable, got %v", err)
	}
	if err := svc.DeleteUser(admin.ID, second.ID); !errors.Is(err, ErrAdminImmutable) {
		t.Fatalf("delete admin: expected ErrAdminImmutable, got %v", err)
	}
}

func TestAdminToggleUserRevokesSession(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	user := createUser(t, db, "reader@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	if err := db.Model(user).Update("refresh_token_hash", "somehash").Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	toggled, err := svc.ToggleUser(admin.ID, user.ID)
	if err != nil {
		t.Fatalf("toggle user: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("user should be deactivated")
	}

	var reloaded models.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.RefreshTokenHash != "" {
		t.Fatal("deactivation must revoke the session")
	}
}

func TestAdminBulkActionSkipsAdmins(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	second := createAdmin(t, db, "second@example.com")
	u1 := createUser(t, db, "a@example.com")
	u2 := createUser(t, db, "b@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	affected, skipped, err := svc.BulkUserAction(admin.ID,
		[]uuid.UUID{second.ID, u1.ID, u2.ID}, "deactivate")
	if err != nil {
		t.Fatalf("bulk deactivate: %v", err)
	}
	if affected != 2 {
		t.Fatalf("affected = %d, want 2", affected)
	}
	if len(skipped) != 1 || skipped[0] != second.ID {
		t.Fatalf("skipped = %v, want the admin", skipped)
	}

	var stillAdmin models.User
	if err := db.First(&stillAdmin, "id = ?", second.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if !stillAdmin.IsActive {
		t.Fatal("admin must not be deactivated by a bulk action")
	}
}

func TestAdminExportUsers(t *testing.T) {
	db := testDB(t)
	createAdmin(t, db, "admin@example.com")
	createUser(t, db, "reader@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	data, contentType, err := svc.ExportUsers("csv")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if contentType != "text/csv" {
		t.Fatalf("content type = %q", contentType)
	}
	if !bytes.Contains(data, []byte("reader@example.com")) {
		t.Fatal("csv export missing user row")
	}

	data, contentType, err = svc.ExportUsers("json")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("content type = %q", contentType)
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		t.Fatalf("json export not parseable: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("json export has %d users, want 2", len(users))
	}

	if _, _, err := svc.ExportUsers("xml"); !errors.Is(err, ErrUnknownExportType) {
		t.Fatalf("expected ErrUnknownExportType, got %v", err)
	}
}

func TestAdminMaintenanceUnknownOperation(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	if _, err := svc.RunMaintenance(admin.ID, "defragment"); !errors.Is(err, ErrUnknownMaintenance) {
		t.Fatalf("expected ErrUnknownMaintenance, got %v", err)
	}
}

func TestAdminAuditTrail(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	user := createUser(t, db, "reader@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	if _, err := svc.ToggleUser(admin.ID, user.ID); err != nil {
		t.Fatalf("toggle user: %v", err)
	}

	logs, total, err := svc.AuditLogs("admin_toggle_user", 1, 10)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if total != 1 || len(logs) != 1 {
		t.Fatalf("audit trail has %d entries, want 1", total)
	}
	if logs[0].UserID == nil || *logs[0].UserID != admin.ID.String() {
		t.Fatalf("audit entry actor = %v, want the admin", logs[0].UserID)
	}
}

func TestAdminNotificationCountsRecipients(t *testing.T) {
	db := testDB(t)
	admin := createAdmin(t, db, "admin@example.com")
	createUser(t, db, "a@example.com")
	createUser(t, db, "b@example.com")
	svc := NewAdminService(db, NewCategoryService(db))

	if err := svc.SendNotification(admin.ID, "active", nil, "Welcome", "Hello readers"); err != nil {
		t.Fatalf("send notification: %v", err)
	}

	logs, total, err := svc.AuditLogs("admin_notification", 1, 10)
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if total != 1 {
		t.Fatalf("notification audit entries = %d, want 1", total)
	}
	if logs[0].Action != "admin_notification" {
		t.Fatalf("action = %q", logs[0].Action)
	}

	if err := svc.SendNotification(admin.ID, "vip", nil, "t", "m"); err == nil {
		t.Fatal("unknown segment should fail")
	}
}
