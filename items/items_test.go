package items

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/catalog"
	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/storage"
	"github.com/gsarmaonline/swapmart/testutil"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	store  *storage.LocalStore

	owner, other *authentication.User
	category     *catalog.Category
	subCategory  *catalog.SubCategory
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t,
		&authentication.UserType{}, &authentication.User{},
		&catalog.Category{}, &catalog.SubCategory{},
		&Item{}, &ItemImage{},
	)
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	im := NewItemManager(context.Background(), db, ItemConfig{
		Store:     store,
		Auth:      testutil.FakeAuth,
		MaxUpload: 1 << 20,
	})
	router := gin.New()
	im.RegisterRoutes(router.Group("/api"))

	env := &testEnv{db: db, router: router, store: store}
	userType := &authentication.UserType{Name: "User"}
	require.NoError(t, db.Create(userType).Error)
	env.owner = createTestUser(t, db, userType.ID, "owner@example.com")
	env.other = createTestUser(t, db, userType.ID, "other@example.com")

	env.category = &catalog.Category{Name: "Electronics"}
	require.NoError(t, db.Create(env.category).Error)
	env.subCategory = &catalog.SubCategory{Name: "Phones", CategoryID: env.category.ID}
	require.NoError(t, db.Create(env.subCategory).Error)
	return env
}

func createTestUser(t *testing.T, db *gorm.DB, userTypeID, email string) *authentication.User {
	t.Helper()
	user := &authentication.User{Email: email, UserTypeID: userTypeID, IsActive: true}
	user.SetPassword("password123")
	require.NoError(t, db.Create(user).Error)
	return user
}

func (env *testEnv) createItem(t *testing.T, owner *authentication.User, name, status string) *Item {
	t.Helper()
	item := &Item{
		Name:          name,
		Condition:     ConditionNew,
		Status:        status,
		Price:         10,
		IsAvailable:   true,
		CategoryID:    env.category.ID,
		SubCategoryID: env.subCategory.ID,
		UserID:        owner.ID,
	}
	require.NoError(t, env.db.Create(item).Error)
	return item
}

func (env *testEnv) do(method, path, userID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set(testutil.TestUserHeader, userID)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) doJSON(method, path, userID string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	return env.do(method, path, userID, &body, "application/json")
}

func (env *testEnv) itemPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":               "Phone",
		"description":        "Barely used",
		"condition":          ConditionLikeNew,
		"status":             StatusActive,
		"price":              22.5,
		"short_info":         "64GB",
		"state":              "CA",
		"version":            "1.3",
		"display_image_path": "path/samples/sample.jpeg",
		"category":           env.category.ID,
		"sub_category":       env.subCategory.ID,
	}
}

func decodeItems(t *testing.T, w *httptest.ResponseRecorder) []Item {
	t.Helper()
	var response struct {
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Items
}

func TestItemsRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.doJSON(http.MethodGet, "/api/item", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.doJSON(http.MethodPost, "/api/item", "", env.itemPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateItem(t *testing.T) {
	env := setupTestEnv(t)
	otherCategory := &catalog.Category{Name: "Garden"}
	require.NoError(t, env.db.Create(otherCategory).Error)

	tests := []struct {
		name          string
		modify        func(map[string]interface{})
		expectedCode  int
		expectedField string
	}{
		{
			name:         "valid item",
			modify:       func(map[string]interface{}) {},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "invalid condition",
			modify:        func(p map[string]interface{}) { p["condition"] = "Broken" },
			expectedCode:  http.StatusBadRequest,
			expectedField: "condition",
		},
		{
			name:          "invalid status",
			modify:        func(p map[string]interface{}) { p["status"] = "Sold" },
			expectedCode:  http.StatusBadRequest,
			expectedField: "status",
		},
		{
			name:          "negative price",
			modify:        func(p map[string]interface{}) { p["price"] = -1 },
			expectedCode:  http.StatusBadRequest,
			expectedField: "price",
		},
		{
			name:         "missing price",
			modify:       func(p map[string]interface{}) { delete(p, "price") },
			expectedCode: http.StatusBadRequest,
		},
		{
			name:          "unknown category",
			modify:        func(p map[string]interface{}) { p["category"] = "missing" },
			expectedCode:  http.StatusBadRequest,
			expectedField: "category",
		},
		{
			name:          "sub-category of another category",
			modify:        func(p map[string]interface{}) { p["category"] = otherCategory.ID },
			expectedCode:  http.StatusBadRequest,
			expectedField: "sub_category",
		},
		{
			name:          "unknown sub-category",
			modify:        func(p map[string]interface{}) { p["sub_category"] = "missing" },
			expectedCode:  http.StatusBadRequest,
			expectedField: "sub_category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := env.itemPayload()
			tt.modify(payload)

			w := env.doJSON(http.MethodPost, "/api/item", env.owner.ID, payload)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.expectedField != "" {
				assert.Contains(t, w.Body.String(), `"field":"`+tt.expectedField+`"`)
			}
		})
	}

	var item Item
	require.NoError(t, env.db.First(&item, "user_id = ?", env.owner.ID).Error)
	assert.Equal(t, "Phone", item.Name)
	assert.Equal(t, 22.5, item.Price)
	assert.True(t, item.IsAvailable)
	assert.Equal(t, ConditionLikeNew, item.Condition)
}

func TestCreateItemStampsCaller(t *testing.T) {
	env := setupTestEnv(t)

	payload := env.itemPayload()
	payload["user"] = env.other.ID
	payload["is_available"] = false
	w := env.doJSON(http.MethodPost, "/api/item", env.owner.ID, payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Item Item `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, env.owner.ID, response.Item.UserID)
	assert.False(t, response.Item.IsAvailable)
}

func TestItemOwnership(t *testing.T) {
	env := setupTestEnv(t)
	mine := env.createItem(t, env.owner, "Mine", StatusActive)
	theirs := env.createItem(t, env.other, "Theirs", StatusActive)

	w := env.doJSON(http.MethodGet, "/api/item", env.owner.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeItems(t, w)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)

	tests := []struct {
		name         string
		method       string
		payload      interface{}
		expectedCode int
	}{
		{"retrieve", http.MethodGet, nil, http.StatusNotFound},
		{"update", http.MethodPatch, map[string]string{"name": "Stolen"}, http.StatusNotFound},
		{"delete", http.MethodDelete, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run("others "+tt.name, func(t *testing.T) {
			w := env.doJSON(tt.method, "/api/item/"+theirs.ID, env.owner.ID, tt.payload)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}

	var stored Item
	require.NoError(t, env.db.First(&stored, "id = ?", theirs.ID).Error)
	assert.Equal(t, "Theirs", stored.Name)
}

func TestListItemsFiltersAndOrder(t *testing.T) {
	env := setupTestEnv(t)
	first := env.createItem(t, env.owner, "First", StatusActive)
	second := env.createItem(t, env.owner, "Second", StatusDraft)
	third := env.createItem(t, env.owner, "Third", StatusActive)
	require.NoError(t, env.db.Model(&Item{}).Where("id = ?", third.ID).UpdateColumn("is_available", false).Error)

	w := env.doJSON(http.MethodGet, "/api/item", env.owner.ID, nil)
	items := decodeItems(t, w)
	require.Len(t, items, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{items[0].ID, items[1].ID, items[2].ID})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"status", "?status=Draft", []string{second.ID}},
		{"availability", "?is_available=false", []string{third.ID}},
		{"status and availability", "?status=Active&is_available=true", []string{first.ID}},
		{"category", "?category=" + env.category.ID, []string{third.ID, second.ID, first.ID}},
		{"unknown sub-category", "?sub_category=missing", []string{}},
		{"limit", "?limit=1", []string{third.ID}},
		{"limit and offset", "?limit=1&offset=1", []string{second.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(http.MethodGet, "/api/item"+tt.query, env.owner.ID, nil)
			require.Equal(t, http.StatusOK, w.Code)
			ids := []string{}
			for _, item := range decodeItems(t, w) {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	w = env.doJSON(http.MethodGet, "/api/item?is_available=maybe", env.owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.doJSON(http.MethodGet, "/api/item?limit=-1", env.owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateItem(t *testing.T) {
	env := setupTestEnv(t)
	item := env.createItem(t, env.owner, "Phone", StatusDraft)

	w := env.doJSON(http.MethodPatch, "/api/item/"+item.ID, env.owner.ID, map[string]interface{}{
		"status":  StatusSwapped,
		"price":   15.257,
		"is_free": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored Item
	require.NoError(t, env.db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, StatusSwapped, stored.Status)
	assert.Equal(t, 15.26, stored.Price)
	assert.True(t, stored.IsFree)
	assert.Equal(t, "Phone", stored.Name)

	w = env.doJSON(http.MethodPut, "/api/item/"+item.ID, env.owner.ID, map[string]interface{}{
		"condition": "Shiny",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteItemRemovesImages(t *testing.T) {
	env := setupTestEnv(t)
	item := env.createItem(t, env.owner, "Phone", StatusActive)

	body, contentType := testutil.MultipartBody(t, map[string]string{"item": item.ID}, "image", "front.png", testutil.PNG)
	w := env.do(http.MethodPost, "/api/item_image", env.owner.ID, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var image ItemImage
	require.NoError(t, env.db.First(&image, "item_id = ?", item.ID).Error)

	w = env.doJSON(http.MethodDelete, "/api/item/"+item.ID, env.owner.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	env.db.Model(&ItemImage{}).Where("item_id = ?", item.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.NoFileExists(t, filepath.Join(env.store.Root(), filepath.FromSlash(image.Image)))
}

func TestItemCascadesWithCategory(t *testing.T) {
	env := setupTestEnv(t)
	item := env.createItem(t, env.owner, "Phone", StatusActive)

	require.NoError(t, env.db.Delete(env.category).Error)

	var count int64
	env.db.Model(&Item{}).Where("id = ?", item.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestItemBeforeSave(t *testing.T) {
	env := setupTestEnv(t)

	item := &Item{
		Name:          "No status",
		Condition:     ConditionOld,
		CategoryID:    env.category.ID,
		SubCategoryID: env.subCategory.ID,
		UserID:        env.owner.ID,
	}
	require.NoError(t, env.db.Create(item).Error)
	assert.Equal(t, StatusDraft, item.Status)

	item.Name = "   "
	err := env.db.Save(item).Error
	var invalid core.ErrInvalidField
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "name", invalid.Field)

	item.Name = "Phone"
	item.ShortInfo = strings.Repeat("é", maxFieldLength)
	require.NoError(t, env.db.Save(item).Error, "length counts characters, not bytes")

	item.ShortInfo = strings.Repeat("é", maxFieldLength+1)
	err = env.db.Save(item).Error
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "short_info", invalid.Field)
}
