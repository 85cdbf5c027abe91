package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/metrics"
	"github.com/Dias221467/Wishlist_Manager/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrUnmappedReferences is returned when a record references an image URL
// that cannot be mapped to an object key. Nothing is deleted in that case.
var ErrUnmappedReferences = errors.New("image references could not be mapped to object keys")

// ImageReferences streams every image URL held by a wishlist record.
type ImageReferences interface {
	EachImage(ctx context.Context, fn func(imageURL string) error) error
}

// SweepReport summarises one sweep.
type SweepReport struct {
	Scanned    int
	Referenced int
	Reclaimed  int
	Failed     int
}

// OrphanSweeper deletes images that no wishlist record references. Blobs
// younger than the grace period are kept because their record write may
// still be in flight.
type OrphanSweeper struct {
	Bucket  *storage.Bucket
	Records ImageReferences
	Folder  string
	Grace   time.Duration

	now func() time.Time
}

// NewOrphanSweeper creates a new instance of OrphanSweeper
func NewOrphanSweeper(bucket *storage.Bucket, records ImageReferences, folder string, grace time.Duration) *OrphanSweeper {
	return &OrphanSweeper{
		Bucket:  bucket,
		Records: records,
		Folder:  folder,
		Grace:   grace,
		now:     time.Now,
	}
}

// Run performs one sweep. A failed blob delete is logged and counted; the
// sweep moves on to the next blob. If any record references an image URL
// that does not map to a key the sweep deletes nothing.
func (s *OrphanSweeper) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	objects, err := s.Bucket.List(ctx, s.Folder)
	if err != nil {
		metrics.SweepFailures.Inc()
		return report, fmt.Errorf("failed to list images: %w", err)
	}
	report.Scanned = len(objects)

	referenced := make(map[string]struct{})
	unmapped := 0
	err = s.Records.EachImage(ctx, func(imageURL string) error {
		key, err := s.Bucket.KeyFromURL(imageURL)
		if err != nil {
			unmapped++
			logrus.WithError(err).WithField("image", imageURL).Warn("Unmappable image reference")
			return nil
		}
		referenced[key] = struct{}{}
		return nil
	})
	if err != nil {
		metrics.SweepFailures.Inc()
		return report, fmt.Errorf("failed to load image references: %w", err)
	}
	if unmapped > 0 {
		// Any of these may point at a blob in the listing.
		metrics.SweepFailures.Inc()
		return report, fmt.Errorf("%w: %d unmapped", ErrUnmappedReferences, unmapped)
	}

	cutoff := s.now().Add(-s.Grace)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			report.Referenced++
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		err := s.Bucket.DeleteKey(ctx, obj.Key)
		switch {
		case err == nil:
			report.Reclaimed++
			metrics.SweepReclaimed.Inc()
		case errors.Is(err, storage.ErrObjectNotFound):
		default:
			report.Failed++
			metrics.SweepFailures.Inc()
			logrus.WithError(err).WithField("key", obj.Key).Warn("Failed to delete orphaned image")
		}
	}

	logrus.WithFields(logrus.Fields{
		"scanned":    report.Scanned,
		"referenced": report.Referenced,
		"reclaimed":  report.Reclaimed,
		"failed":     report.Failed,
	}).Info("Orphan image sweep completed")
	return report, nil
}
