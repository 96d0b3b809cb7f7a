package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ActivityType string

const (
	ActivityView   ActivityType = "view"
	ActivitySave   ActivityType = "save"
	ActivityApply  ActivityType = "apply"
	ActivityHide   ActivityType = "hide"
	ActivitySearch ActivityType = "search"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityView, ActivitySave, ActivityApply, ActivityHide, ActivitySearch:
		return true
	}
	return false
}

// ActivityMetadata is the job snapshot taken when the action happened.
// Query is only set for search events.
type ActivityMetadata struct {
	Title          string `json:"title,omitempty"`
	Location       string `json:"location,omitempty"`
	Company        string `json:"company,omitempty"`
	Category       string `json:"category,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	Query          string `json:"query,omitempty"`
}

func (m ActivityMetadata) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal activity metadata: %w", err)
	}
	return string(data), nil
}

func (m *ActivityMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ActivityMetadata{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan activity metadata: unsupported type %T", value)
	}

	if len(data) == 0 {
		*m = ActivityMetadata{}
		return nil
	}

	return json.Unmarshal(data, m)
}

// ActivityEvent is one interaction, either sent immediately or parked in the
// outbound queue. ID is local bookkeeping and is not part of the wire body.
type ActivityEvent struct {
	ID             string           `json:"id"`
	JobID          string           `json:"jobId,omitempty"`
	ActivityType   ActivityType     `json:"activityType"`
	Metadata       ActivityMetadata `json:"metadata"`
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
	UserID         string           `json:"userId,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ActivityRequest is the body of the remote activity write endpoint.
type ActivityRequest struct {
	JobID          string           `json:"jobId,omitempty"`
	ActivityType   ActivityType     `json:"activityType"`
	Metadata       ActivityMetadata `json:"metadata"`
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
	UserID         string           `json:"userId,omitempty"`
}

func (e *ActivityEvent) Request() ActivityRequest {
	return ActivityRequest{
		JobID:          e.JobID,
		ActivityType:   e.ActivityType,
		Metadata:       e.Metadata,
		IdempotencyKey: e.IdempotencyKey,
		UserID:         e.UserID,
	}
}

// ActivityResponse acknowledges a write. Duplicate is set when the
// idempotency key was already stored.
type ActivityResponse struct {
	ID        int64 `json:"id"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

// LocalActivityEntry aggregates what happened to one job inside a profile.
type LocalActivityEntry struct {
	Views      int            `json:"views"`
	Saves      int            `json:"saves"`
	LastViewed *time.Time     `json:"lastViewed,omitempty"`
	LastSaved  *time.Time     `json:"lastSaved,omitempty"`
	Categories map[string]int `json:"categories,omitempty"`
}

// UserActivity is one row of the capped activity list.
type UserActivity struct {
	JobID     string            `json:"jobId"`
	Action    ActivityType      `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	JobData   *ActivityMetadata `json:"jobData,omitempty"`
}

type UserActivityData struct {
	Activities  []UserActivity `json:"activities"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// RemoteActivity is a historical record as returned by the activity read endpoint.
type RemoteActivity struct {
	JobID        string           `json:"job_id"`
	ActivityType ActivityType     `json:"activity_type"`
	Metadata     ActivityMetadata `json:"metadata"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ActivityRow is the persisted form of an activity on the server side.
type ActivityRow struct {
	ID             int64            `db:"id"`
	UserID         *string          `db:"user_id"`
	JobID          *string          `db:"job_id"`
	ActivityType   string           `db:"activity_type"`
	Metadata       ActivityMetadata `db:"metadata"`
	IdempotencyKey *string          `db:"idempotency_key"`
	CreatedAt      time.Time        `db:"created_at"`
}

func (r *ActivityRow) ToRemote() RemoteActivity {
	remote := RemoteActivity{
		ActivityType: ActivityType(r.ActivityType),
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
	}
	if r.JobID != nil {
		remote.JobID = *r.JobID
	}
	return remote
}

// ActivityStats summarises the capped activity list.
type ActivityStats struct {
	TotalViews    int      `json:"totalViews"`
	TotalSaves    int      `json:"totalSaves"`
	TotalApplies  int      `json:"totalApplies"`
	TotalHides    int      `json:"totalHides"`
	TotalSearches int      `json:"totalSearches"`
	TopLocations  []string `json:"topLocations"`
	TopCategories []string `json:"topCategories"`
}
