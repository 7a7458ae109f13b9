package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a sellable item in the catalog
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ProductInput is the raw, unvalidated payload of the add-product form.
// Price is kept as text so that parsing is part of validation.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Category    string
	ImageURL    string
}
