package store

import (
	"context"

	"github.com/hyperengineering/protrack/internal/types"
)

// Store defines the interface contract for roadmap persistence.
// Every read and write is scoped to the owning user.
type Store interface {
	CreateRoadmap(ctx context.Context, r *types.Roadmap) error
	GetRoadmap(ctx context.Context, userID, id string) (*types.Roadmap, error)
	ListRoadmaps(ctx context.Context, userID string, c types.Category) ([]types.Roadmap, error)
	SaveRoadmap(ctx context.Context, r *types.Roadmap) error
	DueReminders(ctx context.Context, date types.Date) ([]types.DueReminder, error)
	MarkRemindersSent(ctx context.Context, taskIDs []string) (int64, error)
	GetStats(ctx context.Context) (*types.StoreStats, error)
	Close() error
}
