package cron

import (
	"context"
	"fmt"

	"github.com/Dias221467/Wishlist_Manager/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartSweepCron runs the orphan image sweep on schedule. The caller stops
// the returned scheduler on shutdown.
func StartSweepCron(schedule string, sweeper *jobs.OrphanSweeper) (*cron.Cron, error) {
	// A sweep still running when the next tick fires causes that tick to be skipped.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		if _, err := sweeper.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Orphan image sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	logrus.WithField("schedule", schedule).Info("Orphan image sweep scheduled")
	return c, nil
}
