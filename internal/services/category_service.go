package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

// CategoryInput holds the attributes of a new user category.
type CategoryInput struct {
	Name        string
	Type        models.CategoryType
	ParentID    *string
	Description string
	Icon        string
	Color       string
}

// CategoryPatch holds the fields of a category update. Nil fields are left
// untouched. An empty ParentID moves the category to the root.
type CategoryPatch struct {
	Name        *string
	Type        *models.CategoryType
	ParentID    *string
	Description *string
	Icon        *string
	Color       *string
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category owned by ownerID.
func (s *categoryService) CreateCategory(ownerID string, input CategoryInput) (*models.Category, error) {
	return s.createCategory(s.db, ownerID, input)
}

func (s *categoryService) createCategory(db *gorm.DB, ownerID string, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !input.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be INCOME or EXPENSE")
	}

	if err := s.ensureNameAvailable(db, ownerID, name, ""); err != nil {
		return nil, err
	}

	if input.ParentID != nil && *input.ParentID != "" {
		if _, err := s.loadParent(db, ownerID, *input.ParentID, input.Type); err != nil {
			return nil, err
		}
	} else {
		input.ParentID = nil
	}

	owner := ownerID
	category := &models.Category{
		OwnerID:     &owner,
		Name:        name,
		Type:        input.Type,
		ParentID:    input.ParentID,
		Description: input.Description,
		Icon:        input.Icon,
		Color:       input.Color,
	}
	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetCategoryByID retrieves a category visible to ownerID.
func (s *categoryService) GetCategoryByID(ownerID, categoryID string) (*models.Category, error) {
	category, err := s.find(s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.VisibleTo(ownerID) {
		return nil, apperrors.ErrForbidden
	}
	return category, nil
}

// GetCategoryByName returns the owner's category with the given name, falling
// back to a system template of the same name.
func (s *categoryService) GetCategoryByName(ownerID, name string) (*models.Category, error) {
	var categories []models.Category
	if err := s.db.
		Where("LOWER(name) = LOWER(?) AND (owner_id = ? OR owner_id IS NULL)", strings.TrimSpace(name), ownerID).
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var template *models.Category
	for i := range categories {
		if categories[i].OwnedBy(ownerID) {
			return &categories[i], nil
		}
		if template == nil {
			template = &categories[i]
		}
	}
	if template == nil {
		return nil, apperrors.ErrCategoryNotFound
	}
	return template, nil
}

// ListCategories lists the system templates and the owner's categories,
// optionally filtered by type.
func (s *categoryService) ListCategories(ownerID string, categoryType *models.CategoryType) ([]models.Category, error) {
	query := s.visible(ownerID)
	if categoryType != nil {
		query = query.Where("type = ?", *categoryType)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListRootCategories lists visible categories without a parent.
func (s *categoryService) ListRootCategories(ownerID string) ([]models.Category, error) {
	var categories []models.Category
	if err := s.visible(ownerID).Where("parent_id IS NULL").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListSubcategories lists the visible children of parentID.
func (s *categoryService) ListSubcategories(ownerID, parentID string) ([]models.Category, error) {
	if _, err := s.GetCategoryByID(ownerID, parentID); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.visible(ownerID).Where("parent_id = ?", parentID).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListTemplates lists the system templates.
func (s *categoryService) ListTemplates() ([]models.SystemTemplate, error) {
	var rows []models.Category
	if err := s.db.Where("owner_id IS NULL").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	templates := make([]models.SystemTemplate, 0, len(rows))
	for i := range rows {
		if t, ok := rows[i].Classify().(models.SystemTemplate); ok {
			templates = append(templates, t)
		}
	}
	return templates, nil
}

// UpdateCategory updates an existing category owned by ownerID.
func (s *categoryService) UpdateCategory(ownerID, categoryID string, patch CategoryPatch) (*models.Category, error) {
	category, err := s.findOwned(s.db, ownerID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if !strings.EqualFold(name, category.Name) {
			if err := s.ensureNameAvailable(s.db, ownerID, name, category.ID); err != nil {
				return nil, err
			}
		}
		updates["name"] = name
	}

	targetType := category.Type
	if patch.Type != nil && *patch.Type != category.Type {
		if !patch.Type.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be INCOME or EXPENSE")
		}
		var children int64
		if err := s.db.Model(&models.Category{}).Where("parent_id = ?", category.ID).Count(&children).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if children > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, "cannot change the type of a category with children")
		}
		targetType = *patch.Type
		updates["type"] = targetType
	}

	targetParent := category.ParentID
	if patch.ParentID != nil {
		if *patch.ParentID == "" {
			targetParent = nil
		} else {
			if *patch.ParentID == category.ID {
				return nil, apperrors.ErrSelfParentCategory
			}
			parent, err := s.loadParent(s.db, ownerID, *patch.ParentID, targetType)
			if err != nil {
				return nil, err
			}
			if err := s.ensureNoCycle(category.ID, parent); err != nil {
				return nil, err
			}
			targetParent = &parent.ID
		}
		updates["parent_id"] = targetParent
	} else if targetType != category.Type && targetParent != nil {
		// The existing parent must still match the new type.
		if _, err := s.loadParent(s.db, ownerID, *targetParent, targetType); err != nil {
			return nil, err
		}
	}

	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.find(s.db, category.ID)
}

// DeleteCategory deletes a category owned by ownerID. Categories that are in
// use or have children cannot be deleted.
func (s *categoryService) DeleteCategory(ownerID, categoryID string) error {
	category, err := s.findOwned(s.db, ownerID, categoryID)
	if err != nil {
		return err
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CloneSystemTemplatesForUser copies every system template into ownerID's
// categories, preserving the hierarchy. Owners that already have categories
// are left alone.
func (s *categoryService) CloneSystemTemplatesForUser(ownerID string) (int, error) {
	created := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Category{}).Where("owner_id = ?", ownerID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		var templates []models.Category
		if err := tx.Where("owner_id IS NULL").Order("created_at ASC").Find(&templates).Error; err != nil {
			return err
		}

		idMap := make(map[string]string, len(templates))
		var children []models.Category

		for _, tmpl := range templates {
			if tmpl.ParentID != nil {
				children = append(children, tmpl)
				continue
			}
			clone := cloneTemplate(tmpl, ownerID, nil)
			if err := tx.Create(clone).Error; err != nil {
				return err
			}
			idMap[tmpl.ID] = clone.ID
			created++
		}

		for _, tmpl := range children {
			parentID, ok := idMap[*tmpl.ParentID]
			if !ok {
				logger.Get().Warnw("skipping template with unmapped parent",
					"template_id", tmpl.ID,
					"parent_id", *tmpl.ParentID,
					"owner_id", ownerID,
				)
				continue
			}
			clone := cloneTemplate(tmpl, ownerID, &parentID)
			if err := tx.Create(clone).Error; err != nil {
				return err
			}
			idMap[tmpl.ID] = clone.ID
			created++
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if created > 0 {
		logger.Get().Infow("cloned system categories", "owner_id", ownerID, "count", created)
	}
	return created, nil
}

// ResolveCategory finds the category a name refers to for ownerID: the
// owner's own category first, then a system template, creating a user
// category when neither exists.
func (s *categoryService) ResolveCategory(ownerID, name string, categoryType models.CategoryType) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var candidates []models.Category
	if err := s.db.
		Where("LOWER(name) = LOWER(?) AND type = ? AND (owner_id = ? OR owner_id IS NULL)", name, categoryType, ownerID).
		Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var template *models.Category
	for i := range candidates {
		if candidates[i].OwnedBy(ownerID) {
			return &candidates[i], nil
		}
		if template == nil {
			template = &candidates[i]
		}
	}
	if template != nil {
		return template, nil
	}

	return s.CreateCategory(ownerID, CategoryInput{Name: name, Type: categoryType})
}

func (s *categoryService) visible(ownerID string) *gorm.DB {
	return s.db.Model(&models.Category{}).Where("owner_id = ? OR owner_id IS NULL", ownerID)
}

func (s *categoryService) find(db *gorm.DB, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// findOwned loads a category the caller may modify.
func (s *categoryService) findOwned(db *gorm.DB, ownerID, categoryID string) (*models.Category, error) {
	category, err := s.find(db, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsTemplate() {
		return nil, apperrors.ErrSystemCategoryImmutable
	}
	if !category.OwnedBy(ownerID) {
		return nil, apperrors.ErrForbidden
	}
	return category, nil
}

func (s *categoryService) ensureNameAvailable(db *gorm.DB, ownerID, name, excludeID string) error {
	query := db.Model(&models.Category{}).Where("owner_id = ? AND LOWER(name) = LOWER(?)", ownerID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryNameTaken
	}
	return nil
}

// loadParent validates a prospective parent for a category of the given type.
func (s *categoryService) loadParent(db *gorm.DB, ownerID, parentID string, categoryType models.CategoryType) (*models.Category, error) {
	var parent models.Category
	if err := db.Where("id = ?", parentID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !parent.VisibleTo(ownerID) {
		return nil, apperrors.ErrForbidden
	}
	if parent.Type != categoryType {
		return nil, apperrors.ErrCategoryTypeMismatch
	}
	return &parent, nil
}

// ensureNoCycle walks up from parent and fails if it reaches categoryID.
func (s *categoryService) ensureNoCycle(categoryID string, parent *models.Category) error {
	seen := map[string]bool{parent.ID: true}
	current := parent
	for current.ParentID != nil {
		if *current.ParentID == categoryID {
			return apperrors.ErrCategoryCycle
		}
		if seen[*current.ParentID] {
			return apperrors.ErrCategoryCycle
		}
		seen[*current.ParentID] = true

		next, err := s.find(s.db, *current.ParentID)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCategoryNotFound.Code) {
				return nil
			}
			return err
		}
		current = next
	}
	return nil
}

func cloneTemplate(tmpl models.Category, ownerID string, parentID *string) *models.Category {
	view := models.UserCategory{
		CategoryFields: tmpl.Classify().Fields(),
		OwnerID:        ownerID,
	}
	view.ID = ""
	view.ParentID = parentID
	return models.NewCategoryRow(view)
}
