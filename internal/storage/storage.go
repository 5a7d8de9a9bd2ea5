package storage

import "ammScope/internal/model"

// Storage defines a sink for replay output.
type Storage interface {
	PutResults(results []model.OperationResult) error
	PutSnapshots(snapshots []model.PoolSnapshot) error
	PutWindows(windows []model.PoolWindowMetrics) error
}
