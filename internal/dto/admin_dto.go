package dto

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type UpdateCategoryRequest struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateUserRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	IsActive   *bool    `json:"is_active"`
	Categories []string `json:"categories"`
}

type BulkUserRequest struct {
	Operation string   `json:"operation"` // activate, deactivate, delete
	UserIDs   []string `json:"user_ids"`
}

type ActionReportRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

type MaintenanceRequest struct {
	Operation string `json:"operation"` // cleanup_inactive_users, update_category_usage
}

type NotificationRequest struct {
	Segment string   `json:"segment"` // all, active; ignored when user_ids given
	UserIDs []string `json:"user_ids,omitempty"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
}
