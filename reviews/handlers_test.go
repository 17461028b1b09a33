package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/items"
	"github.com/gsarmaonline/swapmart/testutil"
	"github.com/gsarmaonline/swapmart/testutil/fixtures"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine

	seller, buyer *authentication.User
	item          *items.Item
	catalog       *fixtures.Catalog
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t, append(fixtures.Models(), &Review{})...)
	rm := NewReviewManager(context.Background(), db, testutil.FakeAuth)
	router := gin.New()
	rm.RegisterRoutes(router.Group("/api"))

	env := &testEnv{db: db, router: router, catalog: fixtures.NewCatalog(t, db)}
	env.seller = fixtures.NewUser(t, db, "seller@example.com")
	env.buyer = fixtures.NewUser(t, db, "buyer@example.com")
	env.item = env.catalog.NewItem(t, db, env.seller, "Phone")
	return env
}

func (env *testEnv) doJSON(method, path, userID string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(testutil.TestUserHeader, userID)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) createReview(t *testing.T, author *authentication.User, item *items.Item, rating int) *Review {
	t.Helper()
	review := &Review{ItemID: item.ID, UserID: author.ID, Rating: rating, Comment: "Great"}
	require.NoError(t, env.db.Create(review).Error)
	return review
}

func TestCreateReview(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name          string
		user          string
		payload       map[string]interface{}
		expectedCode  int
		expectedField string
	}{
		{
			name:         "unauthenticated",
			payload:      map[string]interface{}{"item": env.item.ID, "rating": 5},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "valid review",
			user:         env.buyer.ID,
			payload:      map[string]interface{}{"item": env.item.ID, "rating": 8, "comment": "Works well"},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "rating too high",
			user:          env.buyer.ID,
			payload:       map[string]interface{}{"item": env.item.ID, "rating": 11},
			expectedCode:  http.StatusBadRequest,
			expectedField: "rating",
		},
		{
			name:         "rating missing",
			user:         env.buyer.ID,
			payload:      map[string]interface{}{"item": env.item.ID},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:          "unknown item",
			user:          env.buyer.ID,
			payload:       map[string]interface{}{"item": "missing", "rating": 5},
			expectedCode:  http.StatusBadRequest,
			expectedField: "item",
		},
		{
			name:          "own item",
			user:          env.seller.ID,
			payload:       map[string]interface{}{"item": env.item.ID, "rating": 10},
			expectedCode:  http.StatusBadRequest,
			expectedField: "item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(http.MethodPost, "/api/review", tt.user, tt.payload)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			if tt.expectedField != "" {
				assert.Contains(t, w.Body.String(), `"field":"`+tt.expectedField+`"`)
			}
		})
	}

	var review Review
	require.NoError(t, env.db.First(&review, "item_id = ?", env.item.ID).Error)
	assert.Equal(t, env.buyer.ID, review.UserID)
	assert.Equal(t, 8, review.Rating)
}

func TestListAndRetrieveReviews(t *testing.T) {
	env := setupTestEnv(t)
	other := fixtures.NewUser(t, env.db, "other@example.com")

	first := env.createReview(t, env.buyer, env.item, 3)
	second := env.createReview(t, env.buyer, env.item, 9)
	foreign := env.createReview(t, other, env.item, 7)

	w := env.doJSON(http.MethodGet, "/api/review", env.buyer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Reviews []map[string]interface{} `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Reviews, 2)
	assert.Equal(t, second.ID, list.Reviews[0]["id"])
	assert.Equal(t, first.ID, list.Reviews[1]["id"])
	assert.NotContains(t, list.Reviews[0], "user")

	w = env.doJSON(http.MethodGet, "/api/review/"+first.ID, env.buyer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Review map[string]interface{} `json:"review"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, env.buyer.ID, detail.Review["user"])

	w = env.doJSON(http.MethodGet, "/api/review/"+foreign.ID, env.buyer.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(http.MethodGet, "/api/review?item=missing", env.buyer.ID, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Reviews)
}

func TestUpdateAndDeleteReview(t *testing.T) {
	env := setupTestEnv(t)
	other := fixtures.NewUser(t, env.db, "other@example.com")
	review := env.createReview(t, env.buyer, env.item, 4)

	w := env.doJSON(http.MethodPatch, "/api/review/"+review.ID, env.buyer.ID, map[string]interface{}{"rating": 6})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating":6`)
	assert.Contains(t, w.Body.String(), `"comment":"Great"`)

	w = env.doJSON(http.MethodPut, "/api/review/"+review.ID, env.buyer.ID, map[string]interface{}{"rating": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doJSON(http.MethodPatch, "/api/review/"+review.ID, other.ID, map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.doJSON(http.MethodDelete, "/api/review/"+review.ID, other.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.doJSON(http.MethodDelete, "/api/review/"+review.ID, env.buyer.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	env.db.Model(&Review{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestItemReviews(t *testing.T) {
	env := setupTestEnv(t)
	other := fixtures.NewUser(t, env.db, "other@example.com")
	env.createReview(t, env.buyer, env.item, 5)
	env.createReview(t, other, env.item, 7)

	w := env.doJSON(http.MethodGet, "/api/marketplace/item/"+env.item.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Reviews []ReviewSummary `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Reviews, 2)
	assert.Equal(t, 7, response.Reviews[0].Rating)

	w = env.doJSON(http.MethodGet, "/api/marketplace/item/missing/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewsCascadeWithItem(t *testing.T) {
	env := setupTestEnv(t)
	env.createReview(t, env.buyer, env.item, 5)

	require.NoError(t, env.db.Delete(env.item).Error)

	var count int64
	env.db.Model(&Review{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
