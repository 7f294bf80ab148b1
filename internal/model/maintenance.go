package model

import "time"

// MaintenanceStatus enumerates request states. The usual progression is
// open → assigned → in_progress → completed (or cancelled), but this is not
// enforced as a state machine: any authorized caller may set any value.
type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "open"
	MaintenanceAssigned   MaintenanceStatus = "assigned"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenancePriority enumerates urgency levels.
type MaintenancePriority string

const (
	PriorityLow       MaintenancePriority = "low"
	PriorityMedium    MaintenancePriority = "medium"
	PriorityHigh      MaintenancePriority = "high"
	PriorityEmergency MaintenancePriority = "emergency"
)

// MaintenanceCategory enumerates work categories.
type MaintenanceCategory string

const (
	CategoryPlumbing    MaintenanceCategory = "plumbing"
	CategoryElectrical  MaintenanceCategory = "electrical"
	CategoryHVAC        MaintenanceCategory = "hvac"
	CategoryAppliance   MaintenanceCategory = "appliance"
	CategoryStructural  MaintenanceCategory = "structural"
	CategoryPestControl MaintenanceCategory = "pest_control"
	CategoryCleaning    MaintenanceCategory = "cleaning"
	CategoryOther       MaintenanceCategory = "other"
)

// ValidMaintenanceCategory reports whether s names a known category.
func ValidMaintenanceCategory(s string) bool {
	switch MaintenanceCategory(s) {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryAppliance,
		CategoryStructural, CategoryPestControl, CategoryCleaning, CategoryOther:
		return true
	}
	return false
}

// ValidMaintenancePriority reports whether s names a known priority.
func ValidMaintenancePriority(s string) bool {
	switch MaintenancePriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}

// ValidMaintenanceStatus reports whether s names a known status.
func ValidMaintenanceStatus(s string) bool {
	switch MaintenanceStatus(s) {
	case MaintenanceOpen, MaintenanceAssigned, MaintenanceInProgress,
		MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

// MaintenanceRequest mirrors a row of the `maintenance_requests` table.
type MaintenanceRequest struct {
	ID                 string              `json:"request_id"`
	UnitID             string              `json:"unit_id"`
	PropertyID         string              `json:"property_id"`
	TenantID           string              `json:"tenant_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Category           MaintenanceCategory `json:"category"`
	Priority           MaintenancePriority `json:"priority"`
	Status             MaintenanceStatus   `json:"status"`
	AssignedTo         string              `json:"assigned_to,omitempty"`
	AccessInstructions string              `json:"access_instructions,omitempty"`
	ResolutionNotes    string              `json:"resolution_notes,omitempty"`
	EstimatedCost      *float64            `json:"estimated_cost,omitempty"`
	ActualCost         *float64            `json:"actual_cost,omitempty"`
	ScheduledDate      *time.Time          `json:"scheduled_date,omitempty"`
	CompletionDate     *time.Time          `json:"completion_date,omitempty"`
	Photos             []string            `json:"photos"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// MaintenancePatch carries a partial update of a maintenance request. The
// handler is responsible for narrowing it to the fields the caller's role
// may touch before it reaches the repository.
type MaintenancePatch struct {
	Title              *string              `json:"title,omitempty"`
	Description        *string              `json:"description,omitempty"`
	Category           *MaintenanceCategory `json:"category,omitempty"`
	Priority           *MaintenancePriority `json:"priority,omitempty"`
	Status             *MaintenanceStatus   `json:"status,omitempty"`
	AssignedTo         *string              `json:"assigned_to,omitempty"`
	AccessInstructions *string              `json:"access_instructions,omitempty"`
	ResolutionNotes    *string              `json:"resolution_notes,omitempty"`
	EstimatedCost      *float64             `json:"estimated_cost,omitempty"`
	ActualCost         *float64             `json:"actual_cost,omitempty"`
	ScheduledDate      *time.Time           `json:"scheduled_date,omitempty"`
	CompletionDate     *time.Time           `json:"completion_date,omitempty"`
}

// Fields returns only the set values, keyed by column name.
func (p MaintenancePatch) Fields() map[string]any {
	m := map[string]any{}
	putStr(m, "title", p.Title)
	putStr(m, "description", p.Description)
	if p.Category != nil {
		m["category"] = string(*p.Category)
	}
	if p.Priority != nil {
		m["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		m["status"] = string(*p.Status)
	}
	putStr(m, "assigned_to", p.AssignedTo)
	putStr(m, "access_instructions", p.AccessInstructions)
	putStr(m, "resolution_notes", p.ResolutionNotes)
	putF64(m, "estimated_cost", p.EstimatedCost)
	putF64(m, "actual_cost", p.ActualCost)
	if p.ScheduledDate != nil {
		m["scheduled_date"] = p.ScheduledDate.UTC().Format(time.RFC3339)
	}
	if p.CompletionDate != nil {
		m["completion_date"] = p.CompletionDate.UTC().Format(time.RFC3339)
	}
	return m
}

// MaintenanceComment mirrors a row of the `maintenance_comments` table.
// Author name and role are denormalized so the comment thread renders
// without extra user lookups.
type MaintenanceComment struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserRole  string    `json:"user_role"`
	Comment   string    `json:"comment"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
