package activity

import "jobboard-activity/internal/models"

// ActivityRecord is the common input of the preference analysis, built from
// either the local capped history or the server-side activity log.
type ActivityRecord struct {
	JobID    string
	Action   models.ActivityType
	Metadata *models.ActivityMetadata
}

// PreferenceProfile is derived from activity records on demand and never stored.
type PreferenceProfile struct {
	Locations       map[string]int
	Categories      map[string]int
	Companies       map[string]int
	EmploymentTypes map[string]int

	ViewedJobIDs map[string]struct{}
	SavedJobIDs  map[string]struct{}
	HiddenJobIDs map[string]struct{}
}

func RecordsFromHistory(activities []models.UserActivity) []ActivityRecord {
	records := make([]ActivityRecord, 0, len(activities))
	for _, a := range activities {
		records = append(records, ActivityRecord{
			JobID:    a.JobID,
			Action:   a.Action,
			Metadata: a.JobData,
		})
	}
	return records
}

func RecordsFromRemote(activities []models.RemoteActivity) []ActivityRecord {
	records := make([]ActivityRecord, 0, len(activities))
	for i := range activities {
		records = append(records, ActivityRecord{
			JobID:    activities[i].JobID,
			Action:   activities[i].ActivityType,
			Metadata: &activities[i].Metadata,
		})
	}
	return records
}

// AnalyzePreferences sums label occurrences across records and sorts job ids
// into viewed, saved and hidden sets. Apply and search records only feed the
// label maps.
func AnalyzePreferences(records []ActivityRecord) PreferenceProfile {
	profile := PreferenceProfile{
		Locations:       make(map[string]int),
		Categories:      make(map[string]int),
		Companies:       make(map[string]int),
		EmploymentTypes: make(map[string]int),
		ViewedJobIDs:    make(map[string]struct{}),
		SavedJobIDs:     make(map[string]struct{}),
		HiddenJobIDs:    make(map[string]struct{}),
	}

	for _, r := range records {
		if m := r.Metadata; m != nil {
			if m.Location != "" {
				profile.Locations[m.Location]++
			}
			if m.Category != "" {
				profile.Categories[m.Category]++
			}
			if m.Company != "" {
				profile.Companies[m.Company]++
			}
			if m.EmploymentType != "" {
				profile.EmploymentTypes[m.EmploymentType]++
			}
		}

		if r.JobID == "" {
			continue
		}

		switch r.Action {
		case models.ActivityView:
			profile.ViewedJobIDs[r.JobID] = struct{}{}
		case models.ActivitySave:
			profile.SavedJobIDs[r.JobID] = struct{}{}
		case models.ActivityHide:
			profile.HiddenJobIDs[r.JobID] = struct{}{}
		}
	}

	return profile
}
