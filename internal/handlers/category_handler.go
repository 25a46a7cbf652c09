package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
	"github.com/tobiasceruttigothe/MyFinances/internal/services"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Type        string  `json:"type" binding:"required,category_type"`
	Description string  `json:"description" binding:"max=500"`
	Icon        string  `json:"icon" binding:"max=50"`
	Color       string  `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string `json:"parent_id" binding:"omitempty,uuid"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// An empty parent_id moves the category to the root.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Type        *string `json:"type" binding:"omitempty,category_type"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string `json:"parent_id"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new transaction category for the user
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Parent belongs to another user"
// @Failure     409 {object} ErrorResponse "Name taken"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	categoryType, _ := models.ParseCategoryType(req.Type)

	category, err := h.categoryService.CreateCategory(userID, services.CategoryInput{
		Name:        req.Name,
		Type:        categoryType,
		ParentID:    req.ParentID,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories handles listing the categories visible to the user
// @Summary     List categories
// @Description List system templates and the user's categories
// @Tags        categories
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       type query string false "Filter by type (INCOME/EXPENSE)"
// @Success     200 {array} models.Category
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter *models.CategoryType
	if raw := c.Query("type"); raw != "" {
		categoryType, ok := models.ParseCategoryType(raw)
		if !ok {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be INCOME or EXPENSE"))
			return
		}
		filter = &categoryType
	}

	categories, err := h.categoryService.ListCategories(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListRootCategories handles listing top-level categories
// @Summary     List root categories
// @Tags        categories
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Success     200 {array} models.Category
// @Router      /categories/root [get]
func (h *CategoryHandler) ListRootCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListRootCategories(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListSubcategories handles listing the children of a category
// @Summary     List subcategories
// @Tags        categories
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Parent category ID"
// @Success     200 {array} models.Category
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/subcategories [get]
func (h *CategoryHandler) ListSubcategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	parentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.ListSubcategories(userID, parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// GetCategoryByName handles looking up a category by name
// @Summary     Get category by name
// @Description The user's own category wins over a system template
// @Tags        categories
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       name path string true "Category name"
// @Success     200 {object} models.Category
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/name/{name} [get]
func (h *CategoryHandler) GetCategoryByName(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByName(userID, c.Param("name"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category
// @Summary     Update a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid input or hierarchy violation"
// @Failure     403 {object} ErrorResponse "System category or not owner"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Name taken"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if req.ParentID != nil && *req.ParentID != "" && !uuid.IsValid(*req.ParentID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid parent_id"))
		return
	}

	patch := services.CategoryPatch{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	}
	if req.Type != nil {
		categoryType, _ := models.ParseCategoryType(*req.Type)
		patch.Type = &categoryType
	}

	category, err := h.categoryService.UpdateCategory(userID, categoryID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_CATEGORY", "category", category.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Tags        categories
// @Param       X-User-Id header string true "User ID"
// @Param       id path string true "Category ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "System category or not owner"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category in use or has children"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// ListTemplates handles listing the system category templates
// @Summary     List system templates
// @Tags        categories
// @Produce     json
// @Success     200 {array} models.SystemTemplate
// @Router      /categories/templates [get]
func (h *CategoryHandler) ListTemplates(c *gin.Context) {
	templates, err := h.categoryService.ListTemplates()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// InitializeForUser handles cloning the system templates for a user. It is
// called by the user service right after registration.
// @Summary     Initialize categories for a user
// @Tags        categories
// @Param       userId path string true "User ID"
// @Success     204 "Initialized"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Router      /categories/initialize-for-user/{userId} [post]
func (h *CategoryHandler) InitializeForUser(c *gin.Context) {
	userID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.categoryService.CloneSystemTemplatesForUser(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if created > 0 {
		h.auditService.Log(userID, "INITIALIZE_CATEGORIES", "category", "", c.ClientIP(),
			map[string]interface{}{"created": created})
	}

	c.Status(http.StatusNoContent)
}
