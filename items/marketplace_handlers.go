package items

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gsarmaonline/swapmart/core"
)

// likeEscaper makes LIKE wildcards in a search term match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// BrowseItemsHandler lists active, available items of every user
func (im *ItemManager) BrowseItemsHandler(c *gin.Context) {
	query, err := filterItems(c, im.db.Scopes(Listed, core.NewestFirst))
	if err != nil {
		core.WriteError(c, err, "item")
		return
	}

	free, err := core.ParseBoolQuery(c, "is_free")
	if err != nil {
		core.WriteError(c, err, "item")
		return
	}
	if free != nil {
		query = query.Where("is_free = ?", *free)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%")
	}

	var items []Item
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetListedItemHandler returns a browsable item with its images
func (im *ItemManager) GetListedItemHandler(c *gin.Context) {
	var item Item
	err := im.db.Scopes(Listed).
		Preload("Images", core.NewestFirst).
		First(&item, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
