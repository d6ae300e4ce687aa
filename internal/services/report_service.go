package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/logging"
	"github.com/readflowhq/readflow-backend/internal/models"
)

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrInvalidReportType   = errors.New("invalid report type")
	ErrInvalidReportStatus = errors.New("invalid report status")
	ErrTargetNotFound      = errors.New("reported content not found")
)

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Create files a report against a post, user or comment after checking
// the target actually exists.
func (s *ReportService) Create(reporterID uuid.UUID, contentType string, targetID uuid.UUID, reason string) (*models.Report, error) {
	var err error
	switch contentType {
	case models.ReportTypePost:
		err = s.db.First(&models.Post{}, "id = ?", targetID).Error
	case models.ReportTypeUser:
		err = s.db.First(&models.User{}, "id = ?", targetID).Error
	case models.ReportTypeComment:
		err = s.db.First(&models.Comment{}, "id = ?", targetID).Error
	default:
		return nil, ErrInvalidReportType
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}

	report := models.Report{
		ReporterID:  reporterID,
		ContentType: contentType,
		TargetID:    targetID,
		Reason:      reason,
		Status:      models.ReportStatusPending,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) List(status string, page, limit int) ([]models.Report, int64, error) {
	query := s.db.Model(&models.Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	err := query.Preload("Reporter").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Action moves a report through its review workflow and records which
// admin handled it.
func (s *ReportService) Action(reportID, adminID uuid.UUID, status, adminNote string) (*models.Report, error) {
	switch status {
	case models.ReportStatusReviewed, models.ReportStatusResolved, models.ReportStatusRejected:
	default:
		return nil, ErrInvalidReportStatus
	}

	var report models.Report
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if adminNote != "" {
		updates["admin_note"] = adminNote
	}
	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}

	logging.Audit(s.db, "report_"+status, &adminID, map[string]interface{}{
		"report_id": reportID.String(),
	})
	return &report, nil
}
