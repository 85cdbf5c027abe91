package handlers

import (
	"errors"
	"net/http"

	"github.com/Dias221467/Wishlist_Manager/internal/services"
	"github.com/Dias221467/Wishlist_Manager/pkg/middleware"
	"github.com/Dias221467/Wishlist_Manager/pkg/response"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Parts above this size are spooled to temp files by the multipart reader.
const multipartMemory = 1 << 20

type WishlistHandler struct {
	Service        *services.WishlistService
	MaxUploadBytes int64
}

func NewWishlistHandler(service *services.WishlistService, maxUploadBytes int64) *WishlistHandler {
	return &WishlistHandler{
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

// RegisterWishlistRoutes mounts the wishlist endpoints behind the auth gate.
func RegisterWishlistRoutes(router *mux.Router, h *WishlistHandler, jwtSecret string) {
	routes := router.PathPrefix("/wishlist").Subrouter()
	routes.Use(middleware.AuthMiddleware(jwtSecret))
	routes.HandleFunc("", h.CreateWishlistItemHandler).Methods("POST")
	routes.HandleFunc("", h.GetWishlistItemsHandler).Methods("GET")
	routes.HandleFunc("/{id}", h.GetWishlistItemHandler).Methods("GET")
	routes.HandleFunc("/{id}", h.UpdateWishlistItemHandler).Methods("PUT")
	routes.HandleFunc("/{id}", h.DeleteWishlistItemHandler).Methods("DELETE")
}

// CreateWishlistItemHandler handles multipart creation of a wishlist item
func (h *WishlistHandler) CreateWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	if !h.parseForm(w, r) {
		return
	}
	file, cleanup, ok := formImage(w, r)
	if !ok {
		return
	}
	defer cleanup()

	item, err := h.Service.CreateWishlistItem(r.Context(), userID, formFields(r), file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Wishlist item added successfully", item)
}

// GetWishlistItemsHandler lists the caller's wishlist
func (h *WishlistHandler) GetWishlistItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.GetWishlistItems(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Wishlist items retrieved successfully", items)
}

// GetWishlistItemHandler returns a single item
func (h *WishlistHandler) GetWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetWishlistItem(r.Context(), currentUserID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Wishlist item retrieved successfully", item)
}

// UpdateWishlistItemHandler applies a partial update, optionally replacing
// the image.
func (h *WishlistHandler) UpdateWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	id := mux.Vars(r)["id"]

	if !h.parseForm(w, r) {
		return
	}
	file, cleanup, ok := formImage(w, r)
	if !ok {
		return
	}
	defer cleanup()

	item, err := h.Service.UpdateWishlistItem(r.Context(), userID, id, formFields(r), file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Wishlist item updated successfully", item)
}

// DeleteWishlistItemHandler removes an item and its image
func (h *WishlistHandler) DeleteWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.Service.DeleteWishlistItem(r.Context(), currentUserID(r), id); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Wishlist item deleted successfully", map[string]string{"id": id})
}

// parseForm reads a multipart or urlencoded body bounded by MaxUploadBytes.
// It writes the error response itself and reports whether to continue.
func (h *WishlistHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return false
	}
	logrus.WithError(err).Warn("Failed to parse wishlist form")
	response.Error(w, http.StatusBadRequest, "Invalid form data")
	return false
}

// formImage returns the uploaded image, or nil when no file part was sent.
// cleanup closes the file and removes any spooled temp files.
func formImage(w http.ResponseWriter, r *http.Request) (*services.ImageUpload, func(), bool) {
	form := r.MultipartForm
	if form == nil {
		return nil, func() {}, true
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() { _ = form.RemoveAll() }, true
	}
	if err != nil {
		_ = form.RemoveAll()
		response.Error(w, http.StatusBadRequest, "Invalid file upload")
		return nil, nil, false
	}

	cleanup := func() {
		file.Close()
		_ = form.RemoveAll()
	}
	return &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, cleanup, true
}

// formFields reads body values only; query parameters are ignored.
func formFields(r *http.Request) services.WishlistFields {
	return services.WishlistFields{
		Name:       r.PostFormValue("name"),
		Amount:     r.PostFormValue("amount"),
		SavingPlan: r.PostFormValue("saving_plan"),
		Type:       r.PostFormValue("type"),
	}
}

func currentUserID(r *http.Request) string {
	if claims := middleware.GetUserFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindUnauthenticated:
		status = http.StatusUnauthorized
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	}
	response.Error(w, status, err.Error())
}
