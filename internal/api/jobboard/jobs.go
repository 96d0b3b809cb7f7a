package jobboard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"jobboard-activity/internal/api/apiclient"
	"jobboard-activity/internal/models"

	"go.uber.org/zap"
)

const DefaultLimit = 20

// Client reads job listings from the job board API.
type Client struct {
	api    *apiclient.Client
	logger *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...apiclient.Option) *Client {
	return &Client{
		api:    apiclient.New(baseURL, timeout, logger, opts...),
		logger: logger,
	}
}

type SearchParams struct {
	Query    string
	Location string
	Limit    int
}

func (c *Client) SearchJobs(ctx context.Context, params SearchParams) ([]models.Job, error) {
	queryParams := url.Values{}

	if params.Query != "" {
		queryParams.Set("q", params.Query)
	}

	if params.Location != "" {
		queryParams.Set("location", params.Location)
	}

	if params.Limit > 0 {
		queryParams.Set("limit", strconv.Itoa(params.Limit))
	} else {
		queryParams.Set("limit", strconv.Itoa(DefaultLimit))
	}

	var jobs []models.Job
	if err := c.api.Get(ctx, "/api/jobs", queryParams, &jobs); err != nil {
		c.logger.Error("failed to search jobs",
			zap.String("query", params.Query),
			zap.String("location", params.Location),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search jobs: %w", err)
	}

	c.logger.Debug("jobs found",
		zap.Int("returned", len(jobs)),
		zap.String("query", params.Query),
		zap.String("location", params.Location),
	)

	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	path := fmt.Sprintf("/api/jobs/%s", url.PathEscape(jobID))

	var job models.Job
	if err := c.api.Get(ctx, path, nil, &job); err != nil {
		c.logger.Error("failed to get job",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}

	c.logger.Debug("job retrieved",
		zap.String("job_id", jobID),
		zap.String("title", job.Title),
	)

	return &job, nil
}

// SortNewestFirst orders jobs by posting date, undated jobs last.
func SortNewestFirst(jobs []models.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		ti, okI := jobs[i].PostedAt()
		tj, okJ := jobs[j].PostedAt()
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

func ExtractJobIDs(jobs []models.Job) []string {
	ids := make([]string, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}
	return ids
}
