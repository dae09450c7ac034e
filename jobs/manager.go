package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultInterval is used when the manager is given no interval
const DefaultInterval = time.Minute

// JobManager handles background job execution
type JobManager struct {
	maintenanceJob *MaintenanceJob
	interval       time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	running        bool
	mu             sync.RWMutex
}

// NewJobManager creates a new job manager
func NewJobManager(maintenanceJob *MaintenanceJob, interval time.Duration) *JobManager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		maintenanceJob: maintenanceJob,
		interval:       interval,
		ctx:            ctx,
		cancel:         cancel,
		running:        false,
	}
}

// Start begins the job manager background processing
func (jm *JobManager) Start() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.running {
		log.Println("Job manager is already running")
		return
	}

	// A stopped manager gets a fresh context
	if jm.ctx.Err() != nil {
		jm.ctx, jm.cancel = context.WithCancel(context.Background())
	}

	jm.running = true
	log.Println("Starting job manager...")

	jm.wg.Add(1)
	go jm.runPeriodicMaintenance(jm.ctx)
}

// Stop stops the job manager
func (jm *JobManager) Stop() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if !jm.running {
		return
	}

	log.Println("Stopping job manager...")
	jm.cancel()
	jm.running = false

	// Wait for all jobs to finish
	jm.wg.Wait()
	log.Println("Job manager stopped")
}

// IsRunning returns whether the job manager is currently running
func (jm *JobManager) IsRunning() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.running
}

// TriggerFlush immediately retries pending snapshot writes in the background.
// It does nothing unless the manager is running.
func (jm *JobManager) TriggerFlush() {
	if jm.maintenanceJob == nil {
		log.Printf("Cannot trigger flush: no maintenance job configured")
		return
	}

	// Stop holds the write lock across wg.Wait, so no Add can race it
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	if !jm.running {
		return
	}

	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		if err := jm.maintenanceJob.FlushDirty(); err != nil {
			log.Printf("Failed to flush pending snapshots: %v", err)
		}
	}()
}

// Wait blocks until triggered jobs have finished
func (jm *JobManager) Wait() {
	jm.wg.Wait()
}

// runPeriodicMaintenance runs the maintenance job on every tick
func (jm *JobManager) runPeriodicMaintenance(ctx context.Context) {
	defer jm.wg.Done()

	// Skip if no maintenance job is configured
	if jm.maintenanceJob == nil {
		log.Println("No maintenance job configured, skipping periodic maintenance")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(jm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Last chance to persist anything still pending
			if err := jm.maintenanceJob.FlushDirty(); err != nil {
				log.Printf("Final flush failed: %v", err)
			}
			log.Println("Periodic maintenance job stopped")
			return
		case <-ticker.C:
			if err := jm.maintenanceJob.Run(); err != nil {
				log.Printf("Periodic maintenance failed: %v", err)
			}
		}
	}
}
