package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/spendwise/expense-api/middleware"
	"github.com/spendwise/expense-api/models"
	"github.com/spendwise/expense-api/policy"
	"github.com/spendwise/expense-api/utils"
)

type CategoryHandler struct {
	DB *sql.DB
}

func categoryOwnership(cat *models.Category) policy.Ownership {
	if cat.UserID == nil {
		return policy.Global()
	}
	return policy.OwnedBy(*cat.UserID)
}

// ListCategories returns active categories visible to the caller: everything
// for admins, own plus global for everyone else.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	actor := middleware.GetActor(c)
	page := utils.NewPagination(c.Query("page"), c.Query("page_size"))

	where := "is_active = TRUE AND (user_id = $1 OR user_id IS NULL)"
	args := []interface{}{actor.ID}
	if actor.IsAdmin {
		where = "is_active = TRUE"
		args = nil
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM categories WHERE %s", where)
	if err := h.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	listQuery := fmt.Sprintf(`
		SELECT id, name, slug, user_id, is_active, created_at, updated_at
		FROM categories
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := h.DB.Query(listQuery, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.UserID, &cat.IsActive,
			&cat.CreatedAt, &cat.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, page.Envelope(categories, total))
}

// slugTaken checks for a slug collision inside one owner scope. excludeID
// skips the row being updated so a category never collides with itself; on
// create it is empty and must bind as NULL, never as an empty string the uuid
// comparison would choke on.
func (h *CategoryHandler) slugTaken(slugValue string, ownerID *string, excludeID string) (bool, string, error) {
	var exclude interface{}
	if excludeID != "" {
		exclude = excludeID
	}

	var (
		exists  bool
		err     error
		message string
	)
	if ownerID == nil {
		err = h.DB.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND user_id IS NULL AND ($2::uuid IS NULL OR id <> $2::uuid))
		`, slugValue, exclude).Scan(&exists)
		message = fmt.Sprintf("A global category with the slug '%s' already exists.", slugValue)
	} else {
		err = h.DB.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1 AND user_id = $2 AND ($3::uuid IS NULL OR id <> $3::uuid))
		`, slugValue, *ownerID, exclude).Scan(&exists)
		message = fmt.Sprintf("A category with the slug '%s' already exists under your account.", slugValue)
	}
	return exists, message, err
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	actor := middleware.GetActor(c)

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only admins choose the owner; everyone else owns what they create.
	ownerID := &actor.ID
	if actor.IsAdmin {
		ownerID = req.UserID
	}

	slugValue := slug.Make(req.Name)
	if slugValue == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"name": "Name must contain at least one letter or digit."}})
		return
	}

	taken, message, err := h.slugTaken(slugValue, ownerID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"slug": message}})
		return
	}

	var cat models.Category
	err = h.DB.QueryRow(`
		INSERT INTO categories (name, slug, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, user_id, is_active, created_at, updated_at
	`, req.Name, slugValue, ownerID).Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.UserID, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err != nil {
		log.Printf("ERROR: Failed to create category: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) fetchCategory(c *gin.Context, id string) (*models.Category, bool) {
	if !utils.ValidUUID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return nil, false
	}

	var cat models.Category
	err := h.DB.QueryRow(`
		SELECT id, name, slug, user_id, is_active, created_at, updated_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.UserID, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return nil, false
	}
	return &cat, true
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	actor := middleware.GetActor(c)

	cat, ok := h.fetchCategory(c, c.Param("id"))
	if !ok {
		return
	}

	// Invisible categories are reported as absent, not forbidden.
	if !policy.CanView(actor, categoryOwnership(cat)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, cat)
}

// UpdateCategory handles PUT (name required).
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	h.updateCategory(c, false)
}

// PatchCategory handles PATCH (all fields optional).
func (h *CategoryHandler) PatchCategory(c *gin.Context) {
	h.updateCategory(c, true)
}

func (h *CategoryHandler) updateCategory(c *gin.Context, partial bool) {
	actor := middleware.GetActor(c)

	cat, ok := h.fetchCategory(c, c.Param("id"))
	if !ok {
		return
	}

	switch policy.CheckMutation(actor, categoryOwnership(cat)) {
	case policy.Mask:
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	case policy.Forbid:
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this category."})
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !partial && req.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	// Deactivation (and reactivation) stays an admin capability.
	if req.IsActive != nil && !actor.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to deactivate this category."})
		return
	}

	name := cat.Name
	slugValue := cat.Slug
	if req.Name != nil && *req.Name != cat.Name {
		name = *req.Name
		newSlug := slug.Make(name)
		if newSlug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"name": "Name must contain at least one letter or digit."}})
			return
		}
		// Re-validate uniqueness only when the slug actually changes.
		if newSlug != cat.Slug {
			taken, message, err := h.slugTaken(newSlug, cat.UserID, cat.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
				return
			}
			if taken {
				c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"slug": message}})
				return
			}
		}
		slugValue = newSlug
	}

	isActive := cat.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var updated models.Category
	err := h.DB.QueryRow(`
		UPDATE categories
		SET name = $1, slug = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, name, slug, user_id, is_active, created_at, updated_at
	`, name, slugValue, isActive, cat.ID).Scan(
		&updated.ID, &updated.Name, &updated.Slug, &updated.UserID, &updated.IsActive,
		&updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		log.Printf("ERROR: Failed to update category %s: %v", cat.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteCategory soft-deletes: the row stays and linked transactions keep
// their category reference.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	actor := middleware.GetActor(c)

	cat, ok := h.fetchCategory(c, c.Param("id"))
	if !ok {
		return
	}

	switch policy.CheckMutation(actor, categoryOwnership(cat)) {
	case policy.Mask:
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	case policy.Forbid:
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to delete this category."})
		return
	}

	if _, err := h.DB.Exec(`
		UPDATE categories SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, cat.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
