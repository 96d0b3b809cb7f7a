package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard-activity/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrDuplicate is returned by InsertActivity when the idempotency key was
// already stored. The id of the existing row is returned alongside it.
var ErrDuplicate = errors.New("duplicate activity")

const activityTable = "user_activity"

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *Store) InsertActivity(ctx context.Context, req models.ActivityRequest) (int64, error) {
	query := `
		INSERT INTO user_activity (user_id, job_id, activity_type, metadata, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`

	var id int64
	err := s.sess.
		SelectBySql(query,
			nullable(req.UserID),
			nullable(req.JobID),
			string(req.ActivityType),
			req.Metadata,
			nullable(req.IdempotencyKey),
			time.Now().UTC(),
		).
		LoadOneContext(ctx, &id)

	if errors.Is(err, dbr.ErrNotFound) && req.IdempotencyKey != "" {
		existing, lookupErr := s.activityIDByKey(ctx, req.IdempotencyKey)
		if lookupErr != nil {
			return 0, lookupErr
		}

		s.logger.Debug("duplicate activity ignored",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("id", existing),
		)
		return existing, ErrDuplicate
	}

	if err != nil {
		s.logger.Error("failed to insert activity",
			zap.String("job_id", req.JobID),
			zap.String("activity_type", string(req.ActivityType)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("insert activity: %w", err)
	}

	return id, nil
}

func (s *Store) activityIDByKey(ctx context.Context, key string) (int64, error) {
	var id int64

	err := s.sess.
		Select("id").
		From(activityTable).
		Where("idempotency_key = ?", key).
		LoadOneContext(ctx, &id)

	if err != nil {
		s.logger.Error("failed to get activity by idempotency key",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return 0, fmt.Errorf("get activity by key: %w", err)
	}

	return id, nil
}

// ListUserActivity returns the user's activity, newest first.
func (s *Store) ListUserActivity(ctx context.Context, userID string, limit int) ([]models.ActivityRow, error) {
	var rows []models.ActivityRow

	_, err := s.sess.
		Select("id", "user_id", "job_id", "activity_type", "metadata", "idempotency_key", "created_at").
		From(activityTable).
		Where("user_id = ?", userID).
		OrderDesc("created_at").
		OrderDesc("id").
		Limit(uint64(limit)).
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to list user activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list user activity: %w", err)
	}

	return rows, nil
}

// CountUserActivity counts the user's rows, optionally restricted to types.
func (s *Store) CountUserActivity(ctx context.Context, userID string, types ...models.ActivityType) (int, error) {
	var count int

	stmt := s.sess.
		Select("COUNT(*)").
		From(activityTable).
		Where("user_id = ?", userID)

	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		stmt = stmt.Where("activity_type = ANY(?)", pq.Array(names))
	}

	if err := stmt.LoadOneContext(ctx, &count); err != nil {
		s.logger.Error("failed to count user activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count user activity: %w", err)
	}

	return count, nil
}

func (s *Store) CleanOldActivity(ctx context.Context, daysOld int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld)

	result, err := s.sess.
		DeleteFrom(activityTable).
		Where("created_at < ?", cutoff).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to clean old activity",
			zap.Int("days_old", daysOld),
			zap.Error(err),
		)
		return 0, fmt.Errorf("clean old activity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()

	s.logger.Info("old activity cleaned",
		zap.Int("days_old", daysOld),
		zap.Int64("count", rowsAffected),
	)

	return rowsAffected, nil
}
