package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryRouter(t *testing.T, userID string, isAdmin bool) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)
	h := &CategoryHandler{DB: db}

	router := gin.New()
	router.Use(fakeAuth(userID, isAdmin))
	router.GET("/categories", h.ListCategories)
	router.POST("/categories", h.CreateCategory)
	router.GET("/categories/:id", h.GetCategory)
	router.PATCH("/categories/:id", h.PatchCategory)
	router.DELETE("/categories/:id", h.DeleteCategory)

	return router, mock
}

func categoryColumns() []string {
	return []string{"id", "name", "slug", "user_id", "is_active", "created_at", "updated_at"}
}

func TestCreateCategoryDerivesSlug(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	// "Food " slugifies to "food"; the trailing space never reaches the slug.
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM categories WHERE slug = \$1 AND user_id = \$2`).
		WithArgs("food", "u1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs("Food ", "food", "u1").
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food ", "food", "u1", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPost, "/categories", gin.H{"name": "Food "})

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "food", body["slug"])
}

func TestCreateCategorySlugConflictInOwnerScope(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM categories WHERE slug = \$1 AND user_id = \$2`).
		WithArgs("food", "u1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := doJSON(t, router, http.MethodPost, "/categories", gin.H{"name": "Food "})

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs["slug"], "already exists under your account")
}

func TestCreateCategoryGlobalConflict(t *testing.T) {
	router, mock := categoryRouter(t, "admin1", true)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM categories WHERE slug = \$1 AND user_id IS NULL`).
		WithArgs("food", nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Admin sending user_id: null targets the global scope.
	w := doJSON(t, router, http.MethodPost, "/categories", gin.H{"name": "Food", "user_id": nil})

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs["slug"], "A global category")
}

func TestNonAdminCannotChooseOwner(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	// The supplied user_id is ignored; the slug check and insert both use u1.
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM categories WHERE slug = \$1 AND user_id = \$2`).
		WithArgs("travel", "u1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs("Travel", "travel", "u1").
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow("c2", "Travel", "travel", "u1", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPost, "/categories", gin.H{"name": "Travel", "user_id": "someone-else"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetCategoryMaskedForNonOwner(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`SELECT id, name, slug, user_id, is_active, created_at, updated_at\s+FROM categories`).
		WithArgs(catOtherID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catOtherID, "Secret", "secret", "u2", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodGet, "/categories/"+catOtherID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Category not found", body["error"])
}

func TestGlobalCategoryVisibleToEveryone(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catGlobalID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catGlobalID, "Groceries", "groceries", nil, true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodGet, "/categories/"+catGlobalID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGlobalCategoryMutationForbiddenForNonAdmin(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catGlobalID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catGlobalID, "Groceries", "groceries", nil, true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPatch, "/categories/"+catGlobalID, gin.H{"name": "Food"})

	// Global categories are visible, so the denial is a 403, not a mask.
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPatchCategoryUnchangedSlugSkipsUniquenessCheck(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food", "food", "u1", true, time.Now(), time.Now()))
	// Renaming "Food" to "FOOD" keeps slug "food": no EXISTS query expected.
	mock.ExpectQuery(`UPDATE categories`).
		WithArgs("FOOD", "food", true, catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "FOOD", "food", "u1", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPatch, "/categories/"+catFoodID, gin.H{"name": "FOOD"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPatchCategorySlugChangeExcludesSelf(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food", "food", "u1", true, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM categories WHERE slug = \$1 AND user_id = \$2 AND \(\$3::uuid IS NULL OR id <> \$3::uuid\)`).
		WithArgs("dining", "u1", catFoodID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`UPDATE categories`).
		WithArgs("Dining", "dining", true, catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Dining", "dining", "u1", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPatch, "/categories/"+catFoodID, gin.H{"name": "Dining"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "dining", body["slug"])
}

func TestNonAdminCannotDeactivateViaPatch(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food", "food", "u1", true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodPatch, "/categories/"+catFoodID, gin.H{"is_active": false})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteCategoryIsSoft(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`FROM categories`).
		WithArgs(catFoodID).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food", "food", "u1", true, time.Now(), time.Now()))
	// Soft delete: an UPDATE flipping is_active, never a DELETE.
	mock.ExpectExec(`UPDATE categories SET is_active = FALSE`).
		WithArgs(catFoodID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, router, http.MethodDelete, "/categories/"+catFoodID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCategoriesScopesToOwnerPlusGlobal(t *testing.T) {
	router, mock := categoryRouter(t, "u1", false)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories WHERE is_active = TRUE AND \(user_id = \$1 OR user_id IS NULL\)`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`FROM categories`).
		WithArgs("u1", 5, 0).
		WillReturnRows(sqlmock.NewRows(categoryColumns()).
			AddRow(catFoodID, "Food", "food", "u1", true, time.Now(), time.Now()).
			AddRow(catGlobalID, "Groceries", "groceries", nil, true, time.Now(), time.Now()))

	w := doJSON(t, router, http.MethodGet, "/categories", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total_items"])
	results := body["results"].([]interface{})
	assert.Len(t, results, 2)
}
