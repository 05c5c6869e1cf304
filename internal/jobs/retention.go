package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/statusboardhq/statusboard/internal/database"
)

// RetentionJob prunes closed incidents older than the retention window.
// Open incidents are never touched regardless of age.
type RetentionJob struct {
	db            *gorm.DB
	retentionDays int
}

// NewRetentionJob creates a retention job for the given window
func NewRetentionJob(db *gorm.DB, retentionDays int) *RetentionJob {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &RetentionJob{db: db, retentionDays: retentionDays}
}

// RunOnce performs one cleanup pass and returns the number of incidents removed
func (j *RetentionJob) RunOnce() (int64, error) {
	return database.CleanupOldIncidents(j.db, j.retentionDays)
}

// Start begins the periodic cleanup
func (j *RetentionJob) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := j.RunOnce()
			if err != nil {
				log.Printf("Retention job error: %v", err)
			} else if removed > 0 {
				log.Printf("Retention job: removed %d incidents older than %d days", removed, j.retentionDays)
			}
		case <-stop:
			log.Println("Retention job stopped")
			return
		}
	}
}
