package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/metrics"
	"github.com/Dias221467/Wishlist_Manager/internal/models"
	"github.com/Dias221467/Wishlist_Manager/internal/repository"
	"github.com/Dias221467/Wishlist_Manager/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	msgUnauthenticated = "User is not authenticated"
	msgRequiredFields  = "All fields (name, amount, saving_plan, type, file) are required."
	msgInvalidAmount   = "amount must be a positive number"
	msgNotFound        = "Wishlist item not found"
)

// WishlistStore is the record half of a wishlist item.
type WishlistStore interface {
	Create(ctx context.Context, userID string, item *models.WishlistItem) (*models.WishlistItem, error)
	Get(ctx context.Context, userID, id string) (*models.WishlistItem, error)
	List(ctx context.Context, userID string) ([]models.WishlistItem, error)
	Patch(ctx context.Context, userID, id string, patch *models.WishlistPatch) (*models.WishlistItem, error)
	Delete(ctx context.Context, userID, id string) error
}

// ImageStore is the blob half of a wishlist item.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// WishlistFields carries the raw form values of a create or update request.
type WishlistFields struct {
	Name       string
	Amount     string
	SavingPlan string
	Type       string
}

// ImageUpload is an image stream with the metadata the client declared.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// WishlistService keeps wishlist records and their images consistent across
// the record store and the blob store.
type WishlistService struct {
	records WishlistStore
	images  ImageStore
	folder  string
	now     func() time.Time
}

// NewWishlistService creates a new instance of WishlistService.
func NewWishlistService(records WishlistStore, images ImageStore, folder string) *WishlistService {
	return &WishlistService{
		records: records,
		images:  images,
		folder:  folder,
		now:     time.Now,
	}
}

// CreateWishlistItem uploads the image and then persists the record that
// references it. A failed record write removes the uploaded image again.
func (s *WishlistService) CreateWishlistItem(ctx context.Context, userID string, fields WishlistFields, file *ImageUpload) (item *models.WishlistItem, err error) {
	defer func() { metrics.ObserveOperation("create", err) }()
	const failMsg = "Failed to add wishlist item"

	if userID == "" {
		return nil, newError(KindUnauthenticated, msgUnauthenticated, nil)
	}

	name := strings.TrimSpace(fields.Name)
	savingPlan := strings.TrimSpace(fields.SavingPlan)
	itemType := strings.TrimSpace(fields.Type)
	rawAmount := strings.TrimSpace(fields.Amount)
	if name == "" || rawAmount == "" || savingPlan == "" || itemType == "" || file == nil || file.Content == nil {
		return nil, newError(KindValidation, msgRequiredFields, nil)
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Upload(ctx, s.folder, file.Filename, file.Content, file.Size, file.ContentType)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Image upload failed")
		return nil, newError(KindStorageWrite, failMsg, err)
	}

	created, err := s.records.Create(ctx, userID, &models.WishlistItem{
		Name:       name,
		Amount:     amount,
		SavingPlan: savingPlan,
		Type:       itemType,
		Image:      imageURL,
	})
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to persist wishlist item")
		if cleanupErr := s.discardImage(ctx, "create", imageURL); cleanupErr != nil {
			return nil, newError(KindPartialFailure, failMsg, errors.Join(err, cleanupErr))
		}
		return nil, newError(KindPersistence, failMsg, err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": userID,
		"itemID": created.ID.Hex(),
	}).Info("Wishlist item added")
	return created, nil
}

// GetWishlistItems lists every item owned by userID.
func (s *WishlistService) GetWishlistItems(ctx context.Context, userID string) (items []models.WishlistItem, err error) {
	defer func() { metrics.ObserveOperation("list", err) }()

	if userID == "" {
		return nil, newError(KindUnauthenticated, msgUnauthenticated, nil)
	}

	items, err = s.records.List(ctx, userID)
	if err != nil {
		return nil, newError(KindPersistence, "Failed to get wishlist items", err)
	}
	if items == nil {
		items = []models.WishlistItem{}
	}
	return items, nil
}

// GetWishlistItem fetches one item owned by userID.
func (s *WishlistService) GetWishlistItem(ctx context.Context, userID, id string) (item *models.WishlistItem, err error) {
	defer func() { metrics.ObserveOperation("get", err) }()

	if userID == "" {
		return nil, newError(KindUnauthenticated, msgUnauthenticated, nil)
	}
	return s.fetch(ctx, userID, id, "Failed to get wishlist item")
}

// UpdateWishlistItem patches the record, falling back to stored values for
// empty fields. With a new image the order is upload new, patch record, then
// delete the old image, so the record never points at a missing blob.
func (s *WishlistService) UpdateWishlistItem(ctx context.Context, userID, id string, fields WishlistFields, file *ImageUpload) (item *models.WishlistItem, err error) {
	defer func() { metrics.ObserveOperation("update", err) }()
	const failMsg = "Failed to update wishlist item"

	if userID == "" {
		return nil, newError(KindUnauthenticated, msgUnauthenticated, nil)
	}

	var amount *float64
	if raw := strings.TrimSpace(fields.Amount); raw != "" {
		parsed, err := parseAmount(raw)
		if err != nil {
			return nil, err
		}
		amount = &parsed
	}

	existing, err := s.fetch(ctx, userID, id, failMsg)
	if err != nil {
		return nil, err
	}

	patch := &models.WishlistPatch{
		Name:       orDefault(fields.Name, existing.Name),
		Amount:     existing.Amount,
		SavingPlan: orDefault(fields.SavingPlan, existing.SavingPlan),
		Type:       orDefault(fields.Type, existing.Type),
		UpdatedAt:  s.now(),
	}
	if amount != nil {
		patch.Amount = *amount
	}

	hasFile := file != nil && file.Content != nil
	if hasFile {
		patch.Image, err = s.images.Upload(ctx, s.folder, file.Filename, file.Content, file.Size, file.ContentType)
		if err != nil {
			logrus.WithError(err).WithField("itemID", id).Error("Replacement image upload failed")
			return nil, newError(KindStorageWrite, failMsg, err)
		}
	}

	updated, err := s.records.Patch(ctx, userID, id, patch)
	if err != nil {
		if hasFile {
			if cleanupErr := s.discardImage(ctx, "update", patch.Image); cleanupErr != nil {
				return nil, newError(KindPartialFailure, failMsg, errors.Join(err, cleanupErr))
			}
		}
		if errors.Is(err, repository.ErrWishlistItemNotFound) {
			return nil, newError(KindNotFound, msgNotFound, nil)
		}
		return nil, newError(KindPersistence, failMsg, err)
	}

	if hasFile && existing.Image != "" && existing.Image != patch.Image {
		// The record already references the new image; a leftover old image
		// is reclaimed by the sweep.
		if err := s.images.Delete(ctx, existing.Image); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			metrics.OrphanedBlobs.WithLabelValues("update").Inc()
			logrus.WithError(err).WithFields(logrus.Fields{
				"itemID": id,
				"image":  existing.Image,
			}).Warn("Failed to delete replaced image")
		}
	}

	logrus.WithFields(logrus.Fields{
		"userID":   userID,
		"itemID":   id,
		"newImage": hasFile,
	}).Info("Wishlist item updated")
	return updated, nil
}

// DeleteWishlistItem removes the image and then the record. If the image
// cannot be removed the record is left intact so the call can be retried.
func (s *WishlistService) DeleteWishlistItem(ctx context.Context, userID, id string) (err error) {
	defer func() { metrics.ObserveOperation("delete", err) }()
	const failMsg = "Failed to delete wishlist item"

	if userID == "" {
		return newError(KindUnauthenticated, msgUnauthenticated, nil)
	}

	existing, err := s.fetch(ctx, userID, id, failMsg)
	if err != nil {
		return err
	}

	if existing.Image != "" {
		err := s.images.Delete(ctx, existing.Image)
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
			logrus.WithField("image", existing.Image).Warn("Image already missing, deleting record")
		case err != nil:
			logrus.WithError(err).WithField("itemID", id).Error("Failed to delete wishlist image")
			return newError(KindStorageDelete, failMsg, err)
		}
	}

	if err := s.records.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrWishlistItemNotFound) {
			return newError(KindNotFound, msgNotFound, nil)
		}
		return newError(KindPersistence, failMsg, err)
	}

	logrus.WithFields(logrus.Fields{
		"userID": userID,
		"itemID": id,
	}).Info("Wishlist item deleted")
	return nil
}

func (s *WishlistService) fetch(ctx context.Context, userID, id, failMsg string) (*models.WishlistItem, error) {
	item, err := s.records.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrWishlistItemNotFound) {
		return nil, newError(KindNotFound, msgNotFound, nil)
	}
	if err != nil {
		return nil, newError(KindPersistence, failMsg, err)
	}
	return item, nil
}

// discardImage removes an image whose record write failed.
func (s *WishlistService) discardImage(ctx context.Context, operation, imageURL string) error {
	if err := s.images.Delete(ctx, imageURL); err != nil {
		metrics.OrphanedBlobs.WithLabelValues(operation).Inc()
		logrus.WithError(err).WithField("image", imageURL).Error("Failed to discard uploaded image")
		return fmt.Errorf("discard uploaded image: %w", err)
	}
	return nil
}

func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, newError(KindValidation, msgInvalidAmount, nil)
	}
	return amount, nil
}

func orDefault(input, fallback string) string {
	if v := strings.TrimSpace(input); v != "" {
		return v
	}
	return fallback
}
