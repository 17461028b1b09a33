package authentication

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTypeHandlers(t *testing.T) {
	api := setupTestAPI(t)
	db := api.sessMgr.db

	_, err := api.sessMgr.CreateSuperuser(context.Background(), "admin@example.com", "password123", "Admin")
	require.NoError(t, err)
	createTestUser(t, db, "member@example.com", "password123")

	staffToken := api.login(t, "admin@example.com", "password123").Session.Token
	memberToken := api.login(t, "member@example.com", "password123").Session.Token

	var created struct {
		UserType UserType `json:"user_type"`
	}

	t.Run("anonymous create", func(t *testing.T) {
		w := api.doJSON(http.MethodPost, "/api/user_type", "", map[string]string{"name": "Seller"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-staff create", func(t *testing.T) {
		w := api.doJSON(http.MethodPost, "/api/user_type", memberToken, map[string]string{"name": "Seller"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff create", func(t *testing.T) {
		w := api.doJSON(http.MethodPost, "/api/user_type", staffToken, map[string]string{"name": "Seller"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "Seller", created.UserType.Name)
	})

	t.Run("missing name", func(t *testing.T) {
		w := api.doJSON(http.MethodPost, "/api/user_type", staffToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("public list newest first", func(t *testing.T) {
		w := api.doJSON(http.MethodGet, "/api/user_type", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			UserTypes []UserType `json:"user_types"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.UserTypes, 3)
		assert.Equal(t, "Seller", response.UserTypes[0].Name)
	})

	t.Run("public retrieve", func(t *testing.T) {
		w := api.doJSON(http.MethodGet, "/api/user_type/"+created.UserType.ID, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = api.doJSON(http.MethodGet, "/api/user_type/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("staff rename", func(t *testing.T) {
		w := api.doJSON(http.MethodPatch, "/api/user_type/"+created.UserType.ID, staffToken, map[string]string{"name": "Merchant"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":"Merchant"`)
	})

	t.Run("delete assigned type", func(t *testing.T) {
		var admin User
		require.NoError(t, db.First(&admin, "email = ?", "admin@example.com").Error)
		w := api.doJSON(http.MethodDelete, "/api/user_type/"+admin.UserTypeID, staffToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete unused type", func(t *testing.T) {
		w := api.doJSON(http.MethodDelete, "/api/user_type/"+created.UserType.ID, staffToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = api.doJSON(http.MethodGet, "/api/user_type/"+created.UserType.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
