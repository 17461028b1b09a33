// Package fixtures seeds users, catalog entries and items for tests of
// packages built on top of items.
package fixtures

import (
	"testing"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/catalog"
	"github.com/gsarmaonline/swapmart/items"
)

// Models lists every table the fixtures write to, in migration order
func Models() []interface{} {
	return []interface{}{
		&authentication.UserType{}, &authentication.User{},
		&catalog.Category{}, &catalog.SubCategory{},
		&items.Item{}, &items.ItemImage{},
	}
}

type Catalog struct {
	Category    *catalog.Category
	SubCategory *catalog.SubCategory
}

// NewCatalog creates one category with one sub-category
func NewCatalog(t *testing.T, db *gorm.DB) *Catalog {
	t.Helper()
	category := &catalog.Category{Name: "Electronics"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	subCategory := &catalog.SubCategory{Name: "Phones", CategoryID: category.ID}
	if err := db.Create(subCategory).Error; err != nil {
		t.Fatalf("Failed to create sub-category: %v", err)
	}
	return &Catalog{Category: category, SubCategory: subCategory}
}

// NewUser creates an active user with its own user type
func NewUser(t *testing.T, db *gorm.DB, email string) *authentication.User {
	t.Helper()
	userType := &authentication.UserType{Name: "User"}
	if err := db.Create(userType).Error; err != nil {
		t.Fatalf("Failed to create user type: %v", err)
	}
	user := &authentication.User{
		Email:      email,
		UserTypeID: userType.ID,
		IsActive:   true,
	}
	user.SetPassword("password123")
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// NewItem creates an active, available item owned by owner
func (cat *Catalog) NewItem(t *testing.T, db *gorm.DB, owner *authentication.User, name string) *items.Item {
	t.Helper()
	item := &items.Item{
		Name:          name,
		Condition:     items.ConditionUsed,
		Status:        items.StatusActive,
		Price:         20.99,
		IsAvailable:   true,
		CategoryID:    cat.Category.ID,
		SubCategoryID: cat.SubCategory.ID,
		UserID:        owner.ID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}
	return item
}
