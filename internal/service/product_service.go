package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"pamazon/internal/domain"
	"pamazon/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ProductService validates and executes catalog-changing operations
type ProductService interface {
	Create(ctx context.Context, input domain.ProductInput, actor domain.Identity) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID, isAuthorized bool) error
}

// ProductRemover removes a product from the store and the cached catalog
type ProductRemover interface {
	Remove(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	store                 repository.ProductRepository
	catalog               ProductRemover
	requireAdminForCreate bool
	validate              *validator.Validate
}

// NewProductService creates a new instance of ProductService.
// With requireAdminForCreate off, any signed-in account may add products.
func NewProductService(
	store repository.ProductRepository,
	catalog ProductRemover,
	requireAdminForCreate bool,
) ProductService {
	return &productService{
		store:                 store,
		catalog:               catalog,
		requireAdminForCreate: requireAdminForCreate,
		validate:              validator.New(),
	}
}

// Create validates the input, failing on the first broken rule, and stores
// the new product. The cached catalog is not updated here.
func (s *productService) Create(ctx context.Context, input domain.ProductInput, actor domain.Identity) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)
	imageURL := strings.TrimSpace(input.ImageURL)

	if name == "" || description == "" || category == "" {
		return nil, domain.ErrMissingField
	}

	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}

	if imageURL != "" && s.validate.Var(imageURL, "http_url") != nil {
		return nil, domain.ErrInvalidImageURL
	}

	if !actor.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	if s.requireAdminForCreate && !actor.IsAdmin {
		return nil, domain.ErrUnauthorized
	}

	product := &domain.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		ImageURL:    imageURL,
		UserID:      actor.UserID,
	}

	if err := s.store.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return product, nil
}

// Delete removes a product. Unauthorized callers never reach the store.
func (s *productService) Delete(ctx context.Context, id uuid.UUID, isAuthorized bool) error {
	if !isAuthorized {
		return domain.ErrUnauthorized
	}
	return s.catalog.Remove(ctx, id)
}

// plainDecimal admits digits with an optional fraction. Signs, exponents,
// hex floats and digit separators are rejected before parsing.
var plainDecimal = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !plainDecimal.MatchString(raw) {
		return 0, domain.ErrInvalidPrice
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, domain.ErrInvalidPrice
	}
	return price, nil
}
