// Package jobs provides background job processing functionality.
package jobs

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// Flusher is a store that can retry a failed snapshot write
type Flusher interface {
	Dirty() bool
	Flush() error
}

// ActivityPruner removes old activity records
type ActivityPruner interface {
	DeleteOlderThan(olderThan time.Duration) (int64, error)
}

// MaintenanceJob keeps persisted state in step with the in-memory stores
type MaintenanceJob struct {
	flushers  []Flusher
	pruner    ActivityPruner
	retention time.Duration
}

// NewMaintenanceJob creates a maintenance job. pruner may be nil, and a
// zero retention disables pruning.
func NewMaintenanceJob(pruner ActivityPruner, retention time.Duration, flushers ...Flusher) *MaintenanceJob {
	return &MaintenanceJob{
		flushers:  flushers,
		pruner:    pruner,
		retention: retention,
	}
}

// FlushDirty retries the snapshot write of every dirty store
func (j *MaintenanceJob) FlushDirty() error {
	var errs []error
	for _, f := range j.flushers {
		if !f.Dirty() {
			continue
		}
		if err := f.Flush(); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Println("Recovered pending snapshot write")
	}
	return errors.Join(errs...)
}

// PruneActivities deletes activities older than the retention period
func (j *MaintenanceJob) PruneActivities() error {
	if j.pruner == nil || j.retention <= 0 {
		return nil
	}

	n, err := j.pruner.DeleteOlderThan(j.retention)
	if err != nil {
		return fmt.Errorf("failed to prune activities: %w", err)
	}
	if n > 0 {
		log.Printf("Pruned %d activities older than %s", n, j.retention)
	}
	return nil
}

// Run performs one maintenance pass
func (j *MaintenanceJob) Run() error {
	return errors.Join(j.FlushDirty(), j.PruneActivities())
}
