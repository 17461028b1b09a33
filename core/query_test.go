package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type note struct {
	BaseModel
	OwnerID string
	Body    string
}

func setupNotes(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&note{}))

	for i, owner := range []string{"a", "b", "a", "a"} {
		require.NoError(t, db.Create(&note{OwnerID: owner, Body: string(rune('1' + i))}).Error)
	}
	return db
}

func testContext(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c
}

func TestBaseModelAssignsID(t *testing.T) {
	db := setupNotes(t)

	n := &note{OwnerID: "c"}
	require.NoError(t, db.Create(n).Error)
	assert.Len(t, n.ID, 36)

	preset := &note{BaseModel: BaseModel{ID: "fixed-id"}, OwnerID: "c"}
	require.NoError(t, db.Create(preset).Error)
	assert.Equal(t, "fixed-id", preset.ID)
}

func TestOwnedByAndNewestFirst(t *testing.T) {
	db := setupNotes(t)

	var notes []note
	require.NoError(t, db.Scopes(OwnedBy("owner_id", "a"), NewestFirst).Find(&notes).Error)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"4", "3", "1"}, []string{notes[0].Body, notes[1].Body, notes[2].Body})
}

func TestPaginate(t *testing.T) {
	db := setupNotes(t)

	tests := []struct {
		name    string
		query   string
		want    int
		wantErr string
	}{
		{name: "no parameters", query: "", want: 4},
		{name: "limit", query: "limit=2", want: 2},
		{name: "offset only", query: "offset=3", want: 1},
		{name: "limit and offset", query: "limit=2&offset=3", want: 1},
		{name: "clamped limit", query: "limit=1000", want: 4},
		{name: "bad limit", query: "limit=abc", wantErr: "limit"},
		{name: "negative offset", query: "offset=-1", wantErr: "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := Paginate(testContext(tt.query))
			if tt.wantErr != "" {
				var invalid ErrInvalidField
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.wantErr, invalid.Field)
				return
			}
			require.NoError(t, err)

			var notes []note
			require.NoError(t, db.Scopes(NewestFirst, scope).Find(&notes).Error)
			assert.Len(t, notes, tt.want)
		})
	}
}

func TestParseBoolQuery(t *testing.T) {
	v, err := ParseBoolQuery(testContext(""), "flag")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseBoolQuery(testContext("flag=true"), "flag")
	require.NoError(t, err)
	assert.True(t, *v)

	_, err = ParseBoolQuery(testContext("flag=perhaps"), "flag")
	var invalid ErrInvalidField
	assert.ErrorAs(t, err, &invalid)
}
