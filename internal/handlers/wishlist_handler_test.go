package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/models"
	"github.com/Dias221467/Wishlist_Manager/internal/services"
	"github.com/Dias221467/Wishlist_Manager/internal/storage"
	"github.com/Dias221467/Wishlist_Manager/internal/storage/memory"
	"github.com/Dias221467/Wishlist_Manager/internal/testutil"
	"github.com/Dias221467/Wishlist_Manager/pkg/jwt"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

type envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router  *mux.Router
	records *testutil.WishlistStore
	blobs   *memory.Store
	bucket  *storage.Bucket
	images  *testutil.FaultyImages
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	blobs := memory.New()
	bucket, err := storage.NewBucket(blobs, "wishlist-bucket", "https://storage.example.com")
	require.NoError(t, err)
	records := testutil.NewWishlistStore()
	images := &testutil.FaultyImages{ImageStore: bucket}

	service := services.NewWishlistService(records, images, "images")
	router := mux.NewRouter()
	RegisterWishlistRoutes(router, NewWishlistHandler(service, 1<<20), testSecret)

	return &testServer{router: router, records: records, blobs: blobs, bucket: bucket, images: images}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwt.GenerateToken(userID, userID+"@example.com", "user", testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

type filePart struct {
	name        string
	contentType string
	body        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) do(t *testing.T, method, path, userID string, fields map[string]string, file *filePart) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if fields != nil || file != nil {
		body, contentType := multipartBody(t, fields, file)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func validForm() map[string]string {
	return map[string]string{"name": "Camera", "amount": "1200", "saving_plan": "weekly", "type": "tech"}
}

func png(name string) *filePart {
	return &filePart{name: name, contentType: "image/png", body: []byte("\x89PNG-" + name)}
}

func (s *testServer) create(t *testing.T, userID string) models.WishlistItem {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/wishlist", userID, validForm(), png("camera.png"))
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	var item models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &item))
	return item
}

func TestCreateWishlistItemHandler(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/wishlist", "user-1", validForm(), png("camera.png"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.False(t, env.Error)
	assert.Equal(t, "Wishlist item added successfully", env.Message)

	var item models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.False(t, item.ID.IsZero())
	assert.Equal(t, "Camera", item.Name)
	assert.Equal(t, 1200.0, item.Amount)
	assert.Equal(t, "weekly", item.SavingPlan)
	assert.Equal(t, "user-1", item.UserID)
	assert.True(t, strings.HasSuffix(item.Image, "-camera.png"))

	key, err := s.bucket.KeyFromURL(item.Image)
	require.NoError(t, err)
	obj, err := s.blobs.Stat(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestCreateWishlistItemHandlerRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/wishlist", "", validForm(), png("camera.png"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, env.Error)
	assert.Equal(t, "Authorization token not provided", env.Message)
	assert.Zero(t, s.blobs.Len())
}

func TestCreateWishlistItemHandlerValidation(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/wishlist", "user-1", validForm(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields (name, amount, saving_plan, type, file) are required.", env.Message)

	form := validForm()
	form["amount"] = "-10"
	rec, env = s.do(t, http.MethodPost, "/wishlist", "user-1", form, png("camera.png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, env.Error)

	assert.Zero(t, s.blobs.Len())
	assert.Zero(t, s.records.Len())
}

func TestCreateWishlistItemHandlerRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t)
	big := &filePart{name: "big.png", contentType: "image/png", body: bytes.Repeat([]byte("x"), 2<<20)}

	rec, env := s.do(t, http.MethodPost, "/wishlist", "user-1", validForm(), big)
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	assert.True(t, env.Error)
	assert.Zero(t, s.blobs.Len())
}

func TestCreateWishlistItemHandlerPersistenceFailure(t *testing.T) {
	s := newTestServer(t)
	s.records.CreateErr = errors.New("mongo down")

	rec, env := s.do(t, http.MethodPost, "/wishlist", "user-1", validForm(), png("camera.png"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to add wishlist item: mongo down", env.Message)
	assert.Zero(t, s.blobs.Len())
}

func TestGetWishlistItemsHandler(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "user-1")
	s.create(t, "user-1")
	s.create(t, "user-2")

	rec, env := s.do(t, http.MethodGet, "/wishlist", "user-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wishlist items retrieved successfully", env.Message)

	var items []models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)

	rec, env = s.do(t, http.MethodGet, "/wishlist", "user-3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestGetWishlistItemHandler(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodGet, "/wishlist/"+item.ID.Hex(), "user-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wishlist item retrieved successfully", env.Message)

	rec, env = s.do(t, http.MethodGet, "/wishlist/"+item.ID.Hex(), "user-2", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Wishlist item not found", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/wishlist/not-an-id", "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateWishlistItemHandlerFields(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodPut, "/wishlist/"+item.ID.Hex(), "user-1",
		map[string]string{"name": "Mirrorless camera", "amount": ""}, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, "Wishlist item updated successfully", env.Message)

	var updated models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Mirrorless camera", updated.Name)
	assert.Equal(t, item.Amount, updated.Amount)
	assert.Equal(t, item.Image, updated.Image)
	assert.False(t, updated.UpdatedAt.Before(item.UpdatedAt))
}

func TestUpdateWishlistItemHandlerIgnoresQueryValues(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodPut, "/wishlist/"+item.ID.Hex()+"?name=from-query&amount=1", "user-1",
		map[string]string{"type": "photo"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var updated models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Camera", updated.Name)
	assert.Equal(t, item.Amount, updated.Amount)
	assert.Equal(t, "photo", updated.Type)
}

func TestUpdateWishlistItemHandlerReplacesImage(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodPut, "/wishlist/"+item.ID.Hex(), "user-1",
		map[string]string{"amount": "1500"}, png("new.png"))
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var updated models.WishlistItem
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 1500.0, updated.Amount)
	assert.True(t, strings.HasSuffix(updated.Image, "-new.png"))

	oldExists, err := s.bucket.Exists(context.Background(), item.Image)
	require.NoError(t, err)
	assert.False(t, oldExists)
	assert.Equal(t, 1, s.blobs.Len())
}

func TestUpdateWishlistItemHandlerInvalidAmount(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodPut, "/wishlist/"+item.ID.Hex(), "user-1",
		map[string]string{"amount": "abc"}, png("new.png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, env.Error)
	assert.Equal(t, 1, s.blobs.Len())
}

func TestUpdateWishlistItemHandlerNotFound(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, _ := s.do(t, http.MethodPut, "/wishlist/"+item.ID.Hex(), "user-2",
		map[string]string{"name": "stolen"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteWishlistItemHandler(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")

	rec, env := s.do(t, http.MethodDelete, "/wishlist/"+item.ID.Hex(), "user-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Wishlist item deleted successfully", env.Message)
	assert.JSONEq(t, `{"id":"`+item.ID.Hex()+`"}`, string(env.Data))
	assert.Zero(t, s.blobs.Len())

	rec, _ = s.do(t, http.MethodGet, "/wishlist/"+item.ID.Hex(), "user-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteWishlistItemHandlerStorageFailure(t *testing.T) {
	s := newTestServer(t)
	item := s.create(t, "user-1")
	s.images.DeleteErr = &storage.DeleteError{Err: errors.New("permission denied")}

	rec, env := s.do(t, http.MethodDelete, "/wishlist/"+item.ID.Hex(), "user-1", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(env.Message, "Failed to delete wishlist item: "))
	assert.Equal(t, 1, s.records.Len())
}

func TestWriteServiceErrorStatuses(t *testing.T) {
	cases := map[services.ErrorKind]int{
		services.KindUnauthenticated: http.StatusUnauthorized,
		services.KindValidation:      http.StatusBadRequest,
		services.KindNotFound:        http.StatusNotFound,
		services.KindStorageWrite:    http.StatusInternalServerError,
		services.KindStorageDelete:   http.StatusInternalServerError,
		services.KindPersistence:     http.StatusInternalServerError,
		services.KindPartialFailure:  http.StatusInternalServerError,
	}
	for kind, status := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, &services.Error{Kind: kind, Message: "boom"})
		assert.Equal(t, status, rec.Code, kind.String())
	}
}
