package models

import "time"

// Category is a spending bucket. UserID == nil means the category is global:
// visible to every user, mutable only by admins.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UserID    *string   `json:"user_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	// UserID is honored only for admins; regular users always own what they
	// create. Explicit null from an admin creates a global category.
	UserID *string `json:"user_id"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}
