package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/models"

	"github.com/spf13/cobra"
)

// loadJobs reads a JSON array of jobs from path, or stdin when path is "-".
func loadJobs(path string, stdin io.Reader) ([]models.Job, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open jobs file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var jobs []models.Job
	if err := json.NewDecoder(r).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	return jobs, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printScored(w io.Writer, scored []activity.ScoredJob) {
	if len(scored) == 0 {
		fmt.Fprintln(w, "No matching jobs.")
		return
	}

	for i, s := range scored {
		fmt.Fprintf(w, "%2d. %-8.2f %s", i+1, s.Score, s.Job.Title)
		if company := s.Job.CompanyOf(); company != "" {
			fmt.Fprintf(w, " (%s)", company)
		}
		fmt.Fprintf(w, " [%s]\n", s.Job.ID)
	}
}

func printEvents(w io.Writer, events []models.ActivityEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "Queue is empty.")
		return
	}

	for _, e := range events {
		user := e.UserID
		if user == "" {
			user = "anonymous"
		}
		fmt.Fprintf(w, "%s  %-6s %-12s %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.ActivityType, e.JobID, user)
	}
}

func printStats(w io.Writer, profileID string, stats models.ActivityStats, pending int) {
	fmt.Fprintf(w, "Profile %s\n", profileID)
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "  %-10s %d\n", "Views:", stats.TotalViews)
	fmt.Fprintf(w, "  %-10s %d\n", "Saves:", stats.TotalSaves)
	fmt.Fprintf(w, "  %-10s %d\n", "Applies:", stats.TotalApplies)
	fmt.Fprintf(w, "  %-10s %d\n", "Hides:", stats.TotalHides)
	fmt.Fprintf(w, "  %-10s %d\n", "Searches:", stats.TotalSearches)
	fmt.Fprintf(w, "  %-10s %d\n", "Pending:", pending)

	if len(stats.TopCategories) > 0 {
		fmt.Fprintf(w, "\nTop categories: %s\n", strings.Join(stats.TopCategories, ", "))
	}
	if len(stats.TopLocations) > 0 {
		fmt.Fprintf(w, "Top locations:  %s\n", strings.Join(stats.TopLocations, ", "))
	}
}
