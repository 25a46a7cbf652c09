package models

import "strings"

// CategoryType represents the kind of transaction a category classifies.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// ParseCategoryType normalizes a user-supplied type label.
func ParseCategoryType(s string) (CategoryType, bool) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Category is the persisted row for both system templates and user-owned
// categories. A nil OwnerID marks a system template.
type Category struct {
	Base
	OwnerID          *string      `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Name             string       `gorm:"not null" json:"name"`
	Type             CategoryType `gorm:"not null" json:"type"`
	ParentID         *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	IsSystemTemplate bool         `gorm:"not null;default:false" json:"is_system_template"`
	Description      string       `json:"description"`
	Icon             string       `json:"icon"`
	Color            string       `json:"color"`
}

// IsTemplate reports whether the category is a shared system template.
func (c *Category) IsTemplate() bool {
	return c.OwnerID == nil
}

// OwnedBy reports whether the category belongs to ownerID.
func (c *Category) OwnedBy(ownerID string) bool {
	return c.OwnerID != nil && *c.OwnerID == ownerID
}

// VisibleTo reports whether ownerID may read the category.
func (c *Category) VisibleTo(ownerID string) bool {
	return c.IsTemplate() || c.OwnedBy(ownerID)
}

// CategoryFields are the attributes shared by every category variant.
type CategoryFields struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        CategoryType `json:"type"`
	ParentID    *string      `json:"parent_id,omitempty"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
}

// CategoryView is the domain-level view of a category row: either a
// SystemTemplate or a UserCategory.
type CategoryView interface {
	Fields() CategoryFields
	Scope() string
}

// SystemTemplate is a category owned by nobody and cloned into new users.
type SystemTemplate struct {
	CategoryFields
}

// Fields implements CategoryView.
func (t SystemTemplate) Fields() CategoryFields { return t.CategoryFields }

// Scope implements CategoryView.
func (SystemTemplate) Scope() string { return "system" }

// UserCategory is a category owned by a single user.
type UserCategory struct {
	CategoryFields
	OwnerID string `json:"owner_id"`
}

// Fields implements CategoryView.
func (u UserCategory) Fields() CategoryFields { return u.CategoryFields }

// Scope implements CategoryView.
func (UserCategory) Scope() string { return "user" }

// Classify converts the persisted row into its domain variant.
func (c *Category) Classify() CategoryView {
	fields := CategoryFields{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		ParentID:    c.ParentID,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
	}
	if c.OwnerID == nil {
		return SystemTemplate{CategoryFields: fields}
	}
	return UserCategory{CategoryFields: fields, OwnerID: *c.OwnerID}
}

// NewCategoryRow collapses a domain variant back into a persisted row.
func NewCategoryRow(v CategoryView) *Category {
	f := v.Fields()
	row := &Category{
		Base:        Base{ID: f.ID},
		Name:        f.Name,
		Type:        f.Type,
		ParentID:    f.ParentID,
		Description: f.Description,
		Icon:        f.Icon,
		Color:       f.Color,
	}
	switch cat := v.(type) {
	case SystemTemplate:
		row.IsSystemTemplate = true
	case UserCategory:
		owner := cat.OwnerID
		row.OwnerID = &owner
	}
	return row
}
