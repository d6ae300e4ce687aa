package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/logging"
	"github.com/readflowhq/readflow-backend/internal/models"
)

var (
	ErrAdminImmutable     = errors.New("admin accounts cannot be modified this way")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUnknownMaintenance = errors.New("unknown maintenance operation")
	ErrUnknownExportType  = errors.New("unknown export type")
)

type AdminService struct {
	db         *gorm.DB
	categories *CategoryService
	now        func() time.Time
}

func NewAdminService(db *gorm.DB, categories *CategoryService) *AdminService {
	return &AdminService{db: db, categories: categories, now: time.Now}
}

// Dashboard aggregates the headline counters shown on the admin home
// screen.
type Dashboard struct {
	TotalUsers     int64            `json:"totalUsers"`
	ActiveUsers    int64            `json:"activeUsers"`
	ActiveUsers30d int64            `json:"activeUsers30d"`
	NewUsers7d     int64            `json:"newUsers7d"`
	NewUsers30d    int64            `json:"newUsers30d"`
	TotalPosts     int64            `json:"totalPosts"`
	TotalComments  int64            `json:"totalComments"`
	PendingReports int64            `json:"pendingReports"`
	Categories     int64            `json:"categories"`
	TopCategories  []models.Category `json:"topCategories"`
}

func (s *AdminService) Dashboard() (*Dashboard, error) {
	var d Dashboard
	now := s.now()
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&d.TotalUsers, s.db.Model(&models.User{})},
		{&d.ActiveUsers, s.db.Model(&models.User{}).Where("is_active = ?", true)},
		{&d.ActiveUsers30d, s.db.Model(&models.User{}).Where("last_login >= ?", now.AddDate(0, 0, -30))},
		{&d.NewUsers7d, s.db.Model(&models.User{}).Where("created_at >= ?", now.AddDate(0, 0, -7))},
		{&d.NewUsers30d, s.db.Model(&models.User{}).Where("created_at >= ?", now.AddDate(0, 0, -30))},
		{&d.TotalPosts, s.db.Model(&models.Post{})},
		{&d.TotalComments, s.db.Model(&models.Comment{})},
		{&d.PendingReports, s.db.Model(&models.Report{}).Where("status = ?", models.ReportStatusPending)},
		{&d.Categories, s.db.Model(&models.Category{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Where("is_active = ?", true).
		Order("usage_count DESC").Limit(5).Find(&d.TopCategories).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListUsers pages through user accounts, optionally filtered by a
// search term over email and name.
func (s *AdminService) ListUsers(search string, page, limit int) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
		query = query.Where("lower(email) LIKE ? OR lower(name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser loads a single account with its subscribed categories.
func (s *AdminService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Categories").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AdminService) UpdateUser(adminID, userID uuid.UUID, name, email *string, isActive *bool, categoryIDs []uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized != user.Email {
			var clash int64
			if err := s.db.Model(&models.User{}).
				Where("email = ? AND id <> ?", normalized, userID).Count(&clash).Error; err != nil {
				return nil, err
			}
			if clash > 0 {
				return nil, ErrEmailTaken
			}
			updates["email"] = normalized
		}
	}
	if isActive != nil {
		updates["is_active"] = *isActive
		if !*isActive {
			// A deactivated user loses their session immediately.
			updates["refresh_token_hash"] = ""
		}
	}
	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if categoryIDs != nil {
		var categories []models.Category
		if len(categoryIDs) > 0 {
			if err := s.db.Where("id IN ? AND is_active = ?", categoryIDs, true).Find(&categories).Error; err != nil {
				return nil, err
			}
		}
		if err := s.db.Model(&user).Association("Categories").Replace(categories); err != nil {
			return nil, err
		}
	}

	logging.Audit(s.db, "admin_update_user", &adminID, map[string]interface{}{
		"target_user_id": userID.String(),
	})
	return &user, nil
}

// ToggleUser flips a user's active flag. Admin accounts are off limits.
func (s *AdminService) ToggleUser(adminID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminImmutable
	}

	next := !user.IsActive
	updates := map[string]interface{}{"is_active": next}
	if !next {
		updates["refresh_token_hash"] = ""
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	logging.Audit(s.db, "admin_toggle_user", &adminID, map[string]interface{}{
		"target_user_id": userID.String(),
		"is_active":      next,
	})
	return &user, nil
}

func (s *AdminService) DeleteUser(adminID, userID uuid.UUID) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Role == models.RoleAdmin {
		return ErrAdminImmutable
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return err
	}

	logging.Audit(s.db, "admin_delete_user", &adminID, map[string]interface{}{
		"target_user_id": userID.String(),
	})
	return nil
}

// BulkUserAction applies activate, deactivate or delete to a set of
// users. Admin accounts in the set are skipped and reported back.
func (s *AdminService) BulkUserAction(adminID uuid.UUID, userIDs []uuid.UUID, action string) (affected int64, skipped []uuid.UUID, err error) {
	var admins []models.User
	if err := s.db.Where("id IN ? AND role = ?", userIDs, models.RoleAdmin).Find(&admins).Error; err != nil {
		return 0, nil, err
	}
	adminSet := make(map[uuid.UUID]bool, len(admins))
	for _, a := range admins {
		adminSet[a.ID] = true
		skipped = append(skipped, a.ID)
	}

	targets := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if !adminSet[id] {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		return 0, skipped, nil
	}

	var res *gorm.DB
	switch action {
	case "activate":
		res = s.db.Model(&models.User{}).Where("id IN ?", targets).
			Update("is_active", true)
	case "deactivate":
		res = s.db.Model(&models.User{}).Where("id IN ?", targets).
			Updates(map[string]interface{}{"is_active": false, "refresh_token_hash": ""})
	case "delete":
		res = s.db.Where("id IN ?", targets).Delete(&models.User{})
	default:
		return 0, nil, fmt.Errorf("unknown bulk action %q", action)
	}
	if res.Error != nil {
		return 0, skipped, res.Error
	}

	logging.Audit(s.db, "admin_bulk_"+action, &adminID, map[string]interface{}{
		"affected": res.RowsAffected,
		"skipped":  len(skipped),
	})
	return res.RowsAffected, skipped, nil
}

// Analytics summarises signups and posting activity over the last N
// days.
type Analytics struct {
	Days          int              `json:"days"`
	NewUsers      int64            `json:"newUsers"`
	NewPosts      int64            `json:"newPosts"`
	NewComments   int64            `json:"newComments"`
	InactiveUsers int64            `json:"inactiveUsers"`
	TopCategory   string           `json:"topCategory"`
	CategoryUsage []CategoryUsage  `json:"categoryUsage"`
	DailyUsers    []DailyCount     `json:"dailyUsers"`
	DailyLogins   []DailyCount     `json:"dailyLogins"`
	Reports       map[string]int64 `json:"reportsByStatus"`
}

type CategoryUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

func (s *AdminService) Analytics(days int) (*Analytics, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	a := Analytics{Days: days, Reports: map[string]int64{}}
	if err := s.db.Model(&models.User{}).Where("created_at >= ?", since).Count(&a.NewUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Post{}).Where("created_at >= ?", since).Count(&a.NewPosts).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Comment{}).Where("created_at >= ?", since).Count(&a.NewComments).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).Where("is_active = ?", false).Count(&a.InactiveUsers).Error; err != nil {
		return nil, err
	}

	var top models.Category
	err := s.db.Order("usage_count DESC").First(&top).Error
	if err == nil {
		a.TopCategory = top.DisplayName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Order("usage_count DESC").Limit(10).Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, c := range categories {
		a.CategoryUsage = append(a.CategoryUsage, CategoryUsage{Name: c.DisplayName, Count: c.UsageCount})
	}

	for _, status := range []string{
		models.ReportStatusPending, models.ReportStatusReviewed,
		models.ReportStatusResolved, models.ReportStatusRejected,
	} {
		var n int64
		if err := s.db.Model(&models.Report{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, err
		}
		a.Reports[status] = n
	}

	for i := days - 1; i >= 0; i-- {
		day := s.now().AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		end := start.AddDate(0, 0, 1)

		var signups int64
		if err := s.db.Model(&models.User{}).
			Where("created_at >= ? AND created_at < ?", start, end).Count(&signups).Error; err != nil {
			return nil, err
		}
		a.DailyUsers = append(a.DailyUsers, DailyCount{Date: start.Format("2006-01-02"), Count: signups})

		// Logins come from the audit trail.
		var logins int64
		if err := s.db.Model(&models.SystemLog{}).
			Where("level = ? AND action IN ? AND timestamp >= ? AND timestamp < ?",
				"AUDIT", []string{"user_login", "admin_login"}, start, end).
			Count(&logins).Error; err != nil {
			return nil, err
		}
		a.DailyLogins = append(a.DailyLogins, DailyCount{Date: start.Format("2006-01-02"), Count: logins})
	}

	return &a, nil
}

// ExportUsers renders the user table as CSV or JSON for download.
func (s *AdminService) ExportUsers(format string) (data []byte, contentType string, err error) {
	var users []models.User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, "", err
	}

	switch format {
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"id", "email", "name", "role", "is_active", "last_login", "created_at"})
		for _, u := range users {
			lastLogin := ""
			if u.LastLogin != nil {
				lastLogin = u.LastLogin.Format(time.RFC3339)
			}
			_ = w.Write([]string{
				u.ID.String(), u.Email, u.Name, u.Role,
				strconv.FormatBool(u.IsActive), lastLogin,
				u.CreatedAt.Format(time.RFC3339),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	case "json":
		out, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return out, "application/json", nil
	default:
		return nil, "", ErrUnknownExportType
	}
}

// MaintenanceResult describes what a maintenance run changed.
type MaintenanceResult struct {
	Operation string `json:"operation"`
	Affected  int64  `json:"affected"`
}

// RunMaintenance executes a named housekeeping operation.
func (s *AdminService) RunMaintenance(adminID uuid.UUID, operation string) (*MaintenanceResult, error) {
	var affected int64
	switch operation {
	case "cleanup_inactive_users":
		// Deactivated non-admin accounts untouched for 90 days are
		// removed.
		cutoff := s.now().AddDate(0, 0, -90)
		res := s.db.Where("is_active = ? AND role <> ? AND updated_at < ?",
			false, models.RoleAdmin, cutoff).Delete(&models.User{})
		if res.Error != nil {
			return nil, res.Error
		}
		affected = res.RowsAffected
	case "update_category_usage":
		n, err := s.categories.RecountUsage()
		if err != nil {
			return nil, err
		}
		affected = n
	default:
		return nil, ErrUnknownMaintenance
	}

	logging.Audit(s.db, "admin_maintenance", &adminID, map[string]interface{}{
		"operation": operation,
		"affected":  affected,
	})
	return &MaintenanceResult{Operation: operation, Affected: affected}, nil
}

// AuditLogs pages through the audit trail recorded in system_logs.
func (s *AdminService) AuditLogs(action string, page, limit int) ([]models.SystemLog, int64, error) {
	query := s.db.Model(&models.SystemLog{}).Where("level = ?", "AUDIT")
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SystemLog
	err := query.Order("timestamp DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// SendNotification records an announcement aimed at specific users or
// a whole segment. Delivery is left to the notification pipeline
// reading the audit trail.
func (s *AdminService) SendNotification(adminID uuid.UUID, segment string, userIDs []uuid.UUID, title, message string) error {
	var recipients int64
	switch {
	case len(userIDs) > 0:
		segment = "targeted"
		if err := s.db.Model(&models.User{}).
			Where("id IN ? AND role = ?", userIDs, models.RoleUser).Count(&recipients).Error; err != nil {
			return err
		}
	case segment == "all":
		if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&recipients).Error; err != nil {
			return err
		}
	case segment == "active":
		if err := s.db.Model(&models.User{}).
			Where("role = ? AND is_active = ?", models.RoleUser, true).Count(&recipients).Error; err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown segment %q", segment)
	}

	logging.Audit(s.db, "admin_notification", &adminID, map[string]interface{}{
		"segment":    segment,
		"title":      title,
		"message":    message,
		"recipients": recipients,
	})
	return nil
}
