package jobs

import (
	"log"
	"time"

	"github.com/gorefurbish/backend/internal/storage"
)

// CleanupJob periodically removes OTP records past their expiry. Expired
// codes already fail verification on their own; the sweep only keeps the
// table from accumulating dead rows.
type CleanupJob struct {
	store     storage.Store
	interval  time.Duration
	isRunning bool
	stop      chan struct{}
}

// NewCleanupJob creates a new cleanup job scheduler
func NewCleanupJob(store storage.Store, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the background sweep
func (j *CleanupJob) Start() {
	if j.isRunning {
		log.Println("Cleanup job already running")
		return
	}
	j.isRunning = true
	log.Printf("Starting OTP cleanup job (every %s)", j.interval)

	go j.runSweep()
}

// Stop halts the background sweep
func (j *CleanupJob) Stop() {
	if !j.isRunning {
		return
	}
	j.isRunning = false
	close(j.stop)
	log.Println("Stopping OTP cleanup job...")
}

func (j *CleanupJob) runSweep() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := j.store.DeleteExpiredOTPs()
			if err != nil {
				log.Printf("❌ OTP cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("🧹 Removed %d expired OTP(s)", removed)
			}
		case <-j.stop:
			return
		}
	}
}
