package handlers

import (
	"context"

	"jobboard-activity/internal/api/jobboard"
	"jobboard-activity/internal/config"
	"jobboard-activity/internal/models"
	"jobboard-activity/internal/profile"
	"jobboard-activity/internal/storage/redis"

	"go.uber.org/zap"
)

// JobSource is the job listing API.
type JobSource interface {
	SearchJobs(ctx context.Context, params jobboard.SearchParams) ([]models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
}

// Context contains deps for all handlers
type Context struct {
	Profiles *profile.Registry
	Cache    *redis.Cache
	Jobs     JobSource
	Config   *config.Config
	Logger   *zap.Logger
}
