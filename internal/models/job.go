package models

import (
	"strings"
	"time"
)

// Job is a candidate job listing as served by the job board API.
// Every field except ID is optional; scoring treats missing fields as no signal.
type Job struct {
	ID             string `json:"id"`
	Title          string `json:"title,omitempty"`
	Location       string `json:"location,omitempty"`
	Category       string `json:"category,omitempty"`
	JobCategory    string `json:"job_category,omitempty"`
	Department     string `json:"department,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	Company        string `json:"company,omitempty"`
	CompanyName    string `json:"company_name,omitempty"`
	URL            string `json:"url,omitempty"`
	DatePosted     string `json:"date_posted,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CategoryOf returns category, falling back to job_category.
func (j *Job) CategoryOf() string {
	if j.Category != "" {
		return j.Category
	}
	return j.JobCategory
}

// CompanyOf returns company, falling back to company_name.
func (j *Job) CompanyOf() string {
	if j.Company != "" {
		return j.Company
	}
	return j.CompanyName
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats the job board emits.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// PostedAt returns date_posted, or created_at when date_posted is absent or invalid.
func (j *Job) PostedAt() (time.Time, bool) {
	if t, ok := ParseDate(j.DatePosted); ok {
		return t, true
	}
	return ParseDate(j.CreatedAt)
}

// Metadata captures the job fields used for preference derivation.
func (j *Job) Metadata() ActivityMetadata {
	category := j.CategoryOf()
	if category == "" {
		category = j.Department
	}

	return ActivityMetadata{
		Title:          j.Title,
		Location:       j.Location,
		Company:        j.CompanyOf(),
		Category:       category,
		EmploymentType: j.EmploymentType,
	}
}
