package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobboard-activity/internal/activity"
	"jobboard-activity/internal/api/jobboard"
	"jobboard-activity/internal/models"
	"jobboard-activity/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const remoteHistoryLimit = 500

func drainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Send queued activity to the remote endpoint",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")

			var remaining int
			if all {
				remaining = scheduler.NewDrainer(a.profiles, 0, a.log).DrainAll(ctx)
			} else {
				remaining = len(a.tracker(ctx).Drain(ctx))
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]int{"remaining": remaining})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Drain finished, %d event(s) still pending.\n", remaining)
			return nil
		}),
	}

	cmd.Flags().BoolP("all", "a", false, "Drain every registered profile")

	return cmd
}

func pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List activity waiting in the outbound queue",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			events := a.tracker(ctx).Pending(ctx)
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), events)
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		}),
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show activity counts for the profile",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			tracker := a.tracker(ctx)
			stats := tracker.Stats(ctx)
			pending := len(tracker.Pending(ctx))

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), struct {
					models.ActivityStats
					Pending int `json:"pending"`
				}{stats, pending})
			}
			printStats(cmd.OutOrStdout(), a.profileID, stats, pending)
			return nil
		}),
	}
}

func topCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top-categories",
		Short: "Rank the profile's most frequent job categories",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			categories := a.tracker(ctx).TopCategories(ctx, limit)

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), categories)
			}
			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories yet.")
				return nil
			}
			for i, c := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, c)
			}
			return nil
		}),
	}

	cmd.Flags().IntP("limit", "n", activity.DefaultTopCategories, "Maximum categories")

	return cmd
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank candidate jobs against the profile's recent activity",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			jobs, err := candidateJobs(ctx, cmd, a)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			remote, _ := cmd.Flags().GetBool("remote")

			var scored []activity.ScoredJob
			if remote {
				scored, err = remoteRecommendations(ctx, a, jobs)
				if err != nil {
					return err
				}
			} else {
				scored = a.tracker(ctx).RecommendedJobs(ctx, jobs)
			}
			if limit > 0 && len(scored) > limit {
				scored = scored[:limit]
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), scored)
			}
			printScored(cmd.OutOrStdout(), scored)
			return nil
		}),
	}

	addCandidateFlags(cmd)
	cmd.Flags().IntP("limit", "n", activity.RecommendationLimit, "Maximum results")
	cmd.Flags().BoolP("remote", "r", false, "Score against the linked account's server-side activity")

	return cmd
}

// remoteRecommendations scores jobs against the activity log of the account
// the profile is linked to.
func remoteRecommendations(ctx context.Context, a *app, jobs []models.Job) ([]activity.ScoredJob, error) {
	userID := a.tracker(ctx).UserID(ctx)
	if userID == "" {
		return nil, fmt.Errorf("profile %s is not linked to an account", a.profileID)
	}

	history, err := a.gateway.FetchActivity(ctx, userID, remoteHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch activity for %s: %w", userID, err)
	}

	return activity.RecommendJobs(jobs, activity.RecordsFromRemote(history), time.Now()), nil
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score candidate jobs against the profile's categories and saved jobs",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			jobs, err := candidateJobs(ctx, cmd, a)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			scored := a.tracker(ctx).PersonalizedJobs(ctx, jobs, limit)

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), scored)
			}
			printScored(cmd.OutOrStdout(), scored)
			return nil
		}),
	}

	addCandidateFlags(cmd)
	cmd.Flags().IntP("limit", "n", 0, "Maximum results (0 keeps all)")

	return cmd
}

func addCandidateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("jobs", "f", "", `JSON file with candidate jobs ("-" for stdin)`)
	cmd.Flags().StringP("query", "q", "", "Fetch candidates from the job board instead")
}

// candidateJobs reads --jobs, or searches the job board with --query.
func candidateJobs(ctx context.Context, cmd *cobra.Command, a *app) ([]models.Job, error) {
	path, _ := cmd.Flags().GetString("jobs")
	query, _ := cmd.Flags().GetString("query")

	switch {
	case path != "":
		return loadJobs(path, cmd.InOrStdin())
	case query != "":
		return a.jobs.SearchJobs(ctx, jobboard.SearchParams{Query: query})
	default:
		return nil, fmt.Errorf("either --jobs or --query is required")
	}
}

func recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "record <view|save|apply|hide> <job-id>",
		Short:     "Record an interaction with a job from the job board",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"view", "save", "apply", "hide"},
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			record, err := recorderFor(a.tracker(ctx), models.ActivityType(args[0]))
			if err != nil {
				return err
			}

			job, err := a.jobs.GetJob(ctx, args[1])
			if err != nil {
				return fmt.Errorf("get job %s: %w", args[1], err)
			}

			record(ctx, *job)
			if err := a.cache.CacheJob(ctx, *job); err != nil {
				a.log.Warn("failed to cache job", zap.String("job_id", job.ID), zap.Error(err))
			}
			a.log.Debug("activity recorded from CLI",
				zap.String("job_id", job.ID),
				zap.String("activity_type", args[0]),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %q.\n", args[0], job.Title)
			return nil
		}),
	}
}

func recorderFor(t *activity.Tracker, activityType models.ActivityType) (func(context.Context, models.Job), error) {
	switch activityType {
	case models.ActivityView:
		return t.RecordView, nil
	case models.ActivitySave:
		return t.RecordSave, nil
	case models.ActivityApply:
		return t.RecordApply, nil
	case models.ActivityHide:
		return t.RecordHide, nil
	default:
		return nil, fmt.Errorf("unknown activity type %q", activityType)
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the job board and record the search",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			query := strings.Join(args, " ")
			location, _ := cmd.Flags().GetString("location")
			limit, _ := cmd.Flags().GetInt("limit")

			jobs, err := a.jobs.SearchJobs(ctx, jobboard.SearchParams{
				Query:    query,
				Location: location,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			a.tracker(ctx).RecordSearch(ctx, query, location)

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
				return nil
			}
			for _, job := range jobs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s (%s)\n", job.ID, job.Title, job.Location)
			}
			return nil
		}),
	}

	cmd.Flags().StringP("location", "l", "", "Location filter")
	cmd.Flags().IntP("limit", "n", jobboard.DefaultLimit, "Maximum results")

	return cmd
}

func linkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <account-id>",
		Short: "Attach the profile to an account and re-associate queued activity",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if err := a.profiles.Link(ctx, a.profileID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %s linked to %s.\n", a.profileID, args[0])
			return nil
		}),
	}
}

func unlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink",
		Short: "Detach the profile from its account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if err := a.profiles.Unlink(ctx, a.profileID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %s unlinked.\n", a.profileID)
			return nil
		}),
	}
}
