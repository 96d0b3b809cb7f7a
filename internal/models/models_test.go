package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJobFieldFallbacks(t *testing.T) {
	job := Job{JobCategory: "Engineering", CompanyName: "Acme", Department: "Platform"}
	if got := job.CategoryOf(); got != "Engineering" {
		t.Errorf("CategoryOf = %q", got)
	}
	if got := job.CompanyOf(); got != "Acme" {
		t.Errorf("CompanyOf = %q", got)
	}

	job.Category = "Sales"
	if got := job.CategoryOf(); got != "Sales" {
		t.Errorf("CategoryOf with category = %q", got)
	}
}

func TestJobPostedAt(t *testing.T) {
	tests := []struct {
		name   string
		job    Job
		want   time.Time
		wantOK bool
	}{
		{"date only", Job{DatePosted: "2024-05-01"}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339", Job{DatePosted: "2024-05-01T10:30:00Z"}, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), true},
		{"created at fallback", Job{CreatedAt: "2024-04-02 08:00:00"}, time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC), true},
		{"garbage", Job{DatePosted: "yesterday"}, time.Time{}, false},
		{"missing", Job{}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.job.PostedAt()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("PostedAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActivityMetadataValueScan(t *testing.T) {
	meta := ActivityMetadata{Title: "Go Developer", Category: "Engineering"}

	value, err := meta.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var fromString ActivityMetadata
	if err := fromString.Scan(value); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if fromString != meta {
		t.Fatalf("scanned = %+v, want %+v", fromString, meta)
	}

	var fromBytes ActivityMetadata
	if err := fromBytes.Scan([]byte(`{"location":"Remote"}`)); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if fromBytes.Location != "Remote" {
		t.Fatalf("location = %q", fromBytes.Location)
	}

	var fromNil ActivityMetadata
	if err := fromNil.Scan(nil); err != nil || fromNil != (ActivityMetadata{}) {
		t.Fatalf("Scan nil = %+v, %v", fromNil, err)
	}

	if err := fromNil.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestActivityTypeValid(t *testing.T) {
	for _, valid := range []ActivityType{ActivityView, ActivitySave, ActivityApply, ActivityHide, ActivitySearch} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	if ActivityType("like").Valid() {
		t.Error("like should be invalid")
	}
}

func TestActivityEventRequestDropsLocalID(t *testing.T) {
	event := ActivityEvent{ID: "local", JobID: "j1", ActivityType: ActivityView, UserID: "u1"}

	data, err := json.Marshal(event.Request())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := body["id"]; ok {
		t.Fatal("request body carries local id")
	}
	if body["jobId"] != "j1" || body["userId"] != "u1" {
		t.Fatalf("body = %v", body)
	}
}

func TestActivityRowToRemote(t *testing.T) {
	jobID := "j1"
	row := ActivityRow{JobID: &jobID, ActivityType: "save", Metadata: ActivityMetadata{Category: "Engineering"}}

	remote := row.ToRemote()
	if remote.JobID != "j1" || remote.ActivityType != ActivitySave || remote.Metadata.Category != "Engineering" {
		t.Fatalf("remote = %+v", remote)
	}

	search := ActivityRow{ActivityType: "search"}
	if got := search.ToRemote(); got.JobID != "" {
		t.Fatalf("search job id = %q", got.JobID)
	}
}
