package quiz

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically purges session stamps old enough that no submission
// against them could still be accepted. Attempt records are never touched.
type Janitor struct {
	store  AttemptStore
	maxAge time.Duration
	cron   *cron.Cron
}

func NewJanitor(store AttemptStore, maxAge time.Duration) *Janitor {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Janitor{store: store, maxAge: maxAge, cron: cron.New()}
}

// Start schedules the purge and runs until Stop.
func (j *Janitor) Start(spec string) error {
	if spec == "" {
		spec = "@every 10m"
	}
	if _, err := j.cron.AddFunc(spec, j.runOnce); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() { j.cron.Stop() }

func (j *Janitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cutoff := time.Now().Add(-j.maxAge).Unix()
	n, err := j.store.PurgeSessions(ctx, cutoff)
	if err != nil {
		log.Printf("session janitor: %v", err)
		return
	}
	if n > 0 {
		log.Printf("session janitor: purged %d stale sessions", n)
	}
}
