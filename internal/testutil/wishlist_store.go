// Package testutil provides in-memory fakes for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/models"
	"github.com/Dias221467/Wishlist_Manager/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInjected is the default failure returned by injected faults.
var ErrInjected = errors.New("injected failure")

// WishlistStore is an in-memory record store with the same ownership and
// not-found semantics as repository.WishlistRepository.
type WishlistStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.WishlistItem

	// Set to make the matching call fail.
	CreateErr error
	GetErr    error
	ListErr   error
	PatchErr  error
	DeleteErr error

	// BeforePatch runs before a patch is applied, outside the lock.
	BeforePatch func()
}

// NewWishlistStore returns an empty store.
func NewWishlistStore() *WishlistStore {
	return &WishlistStore{items: make(map[primitive.ObjectID]models.WishlistItem)}
}

func (s *WishlistStore) Create(_ context.Context, userID string, item *models.WishlistItem) (*models.WishlistItem, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := *item
	stored.ID = primitive.NewObjectID()
	stored.UserID = userID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.items[stored.ID] = stored

	out := stored
	return &out, nil
}

func (s *WishlistStore) Get(_ context.Context, userID, id string) (*models.WishlistItem, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.lookup(userID, id)
	if !ok {
		return nil, repository.ErrWishlistItemNotFound
	}
	return &item, nil
}

func (s *WishlistStore) List(_ context.Context, userID string) ([]models.WishlistItem, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []models.WishlistItem{}
	for _, item := range s.items {
		if item.UserID == userID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.Hex() < items[j].ID.Hex() })
	return items, nil
}

func (s *WishlistStore) Patch(_ context.Context, userID, id string, patch *models.WishlistPatch) (*models.WishlistItem, error) {
	if s.BeforePatch != nil {
		s.BeforePatch()
	}
	if s.PatchErr != nil {
		return nil, s.PatchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.lookup(userID, id)
	if !ok {
		return nil, repository.ErrWishlistItemNotFound
	}
	item.Name = patch.Name
	item.Amount = patch.Amount
	item.SavingPlan = patch.SavingPlan
	item.Type = patch.Type
	if patch.Image != "" {
		item.Image = patch.Image
	}
	item.UpdatedAt = patch.UpdatedAt
	s.items[item.ID] = item
	return &item, nil
}

func (s *WishlistStore) Delete(_ context.Context, userID, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.lookup(userID, id)
	if !ok {
		return repository.ErrWishlistItemNotFound
	}
	delete(s.items, item.ID)
	return nil
}

// EachImage calls fn with every non-empty image URL across all users.
func (s *WishlistStore) EachImage(_ context.Context, fn func(imageURL string) error) error {
	if s.ListErr != nil {
		return s.ListErr
	}
	s.mu.Lock()
	var images []string
	for _, item := range s.items {
		if item.Image != "" {
			images = append(images, item.Image)
		}
	}
	s.mu.Unlock()

	for _, u := range images {
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

// SetImage overwrites the stored image URL of an item regardless of owner.
func (s *WishlistStore) SetImage(id, imageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return
	}
	if item, ok := s.items[objID]; ok {
		item.Image = imageURL
		s.items[objID] = item
	}
}

// Len returns the number of stored items.
func (s *WishlistStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Remove drops an item regardless of owner, simulating a concurrent delete.
func (s *WishlistStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if objID, err := primitive.ObjectIDFromHex(id); err == nil {
		delete(s.items, objID)
	}
}

func (s *WishlistStore) lookup(userID, id string) (models.WishlistItem, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.WishlistItem{}, false
	}
	item, ok := s.items[objID]
	if !ok || item.UserID != userID {
		return models.WishlistItem{}, false
	}
	return item, true
}

// ImageStore is the image capability used by the wishlist service.
type ImageStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectURL string) error
}

// FaultyImages wraps an ImageStore and records calls. Set UploadErr or
// DeleteErr to fail the matching call without reaching the wrapped store.
type FaultyImages struct {
	ImageStore

	mu        sync.Mutex
	Uploads   int
	Deletes   []string
	UploadErr error
	DeleteErr error
}

func (f *FaultyImages) Upload(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	f.Uploads++
	err := f.UploadErr
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.ImageStore.Upload(ctx, folder, filename, r, size, contentType)
}

func (f *FaultyImages) Delete(ctx context.Context, objectURL string) error {
	f.mu.Lock()
	f.Deletes = append(f.Deletes, objectURL)
	err := f.DeleteErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.ImageStore.Delete(ctx, objectURL)
}

// Calls returns the number of upload and delete calls so far.
func (f *FaultyImages) Calls() (uploads, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Uploads, len(f.Deletes)
}
