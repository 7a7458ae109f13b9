package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"pamazon/internal/catalog"
	"pamazon/internal/domain"
	"pamazon/internal/middleware"
	"pamazon/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductCatalog is the cached catalog the handlers read and update
type ProductCatalog interface {
	LoadAll(ctx context.Context) ([]*domain.Product, []string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Append(product *domain.Product)
	Snapshot() []*domain.Product
	Categories() []string
	Loaded() bool
}

// FormPrice accepts a price as either a JSON number or a JSON string and
// keeps a text form so the workflow can validate it.
type FormPrice string

// UnmarshalJSON implements json.Unmarshaler
func (p *FormPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = FormPrice(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		// numbers are rewritten as plain decimals; out-of-range ones keep
		// their text and fail price validation
		*p = FormPrice(n.String())
		if f, err := n.Float64(); err == nil {
			*p = FormPrice(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return nil
}

// CreateProductRequest is the add-product form. Field rules are enforced
// by the product workflow so that failures come back in a fixed order.
type CreateProductRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       FormPrice `json:"price"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
}

// ProductListResponse is a filtered catalog view plus the category facets
type ProductListResponse struct {
	Products   []*domain.Product `json:"products"`
	Categories []string          `json:"categories"`
	Count      int               `json:"count"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	catalog        ProductCatalog
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog ProductCatalog, productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:        catalog,
		productService: productService,
		logger:         logger,
	}
}

// RouteGuards are the middlewares the product routes are wrapped in.
// Limiter may be nil.
type RouteGuards struct {
	Auth         func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	Admin        func(http.Handler) http.Handler
	Limiter      func(http.Handler) http.Handler
}

// RegisterRoutes registers the product and catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, guards RouteGuards) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/categories", h.Categories)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(guards.OptionalAuth)
			if guards.Limiter != nil {
				r.Use(guards.Limiter)
			}
			r.Post("/", h.Create)
			r.Delete("/{id}", h.Delete)
		})
	})

	r.Route("/api/catalog", func(r chi.Router) {
		r.Use(guards.Auth, guards.Admin)
		r.Post("/reload", h.Reload)
	})
}

// List filters the cached catalog by ?q= and ?category=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}

	query := r.URL.Query()
	products := catalog.Filter(h.catalog.Snapshot(), query.Get("q"), query.Get("category"))

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Categories: h.catalog.Categories(),
		Count:      len(products),
	})
}

// Categories returns the distinct categories of the cached catalog
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string][]string{
		"categories": h.catalog.Categories(),
	})
}

// Get returns one product read straight from the store
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, domain.ErrNotFound)
		return
	}

	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.logFailure("Failed to get product", err, zap.String("product_id", id.String()))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create runs the add-product workflow and appends the result to the cache
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		h.logger.Debug("Invalid product payload", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// anonymous callers carry the zero identity
	identity, _ := middleware.GetIdentity(r.Context())

	product, err := h.productService.Create(r.Context(), domain.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       string(req.Price),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}, identity)
	if err != nil {
		h.logFailure("Product creation rejected", err, zap.String("user_id", identity.UserID.String()))
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.catalog.Append(product)

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("user_id", identity.UserID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Delete removes a product. Only the catalog admin is authorized.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		if !identity.IsAdmin {
			middleware.RespondWithDomainError(w, domain.ErrUnauthorized)
			return
		}
		middleware.RespondWithDomainError(w, domain.ErrNotFound)
		return
	}

	if err := h.productService.Delete(r.Context(), id, identity.IsAdmin); err != nil {
		h.logFailure("Product deletion failed", err,
			zap.String("product_id", id.String()),
			zap.String("user_id", identity.UserID.String()),
		)
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Reload refetches the whole catalog from the store
func (h *ProductHandler) Reload(w http.ResponseWriter, r *http.Request) {
	products, categories, err := h.catalog.LoadAll(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products:   products,
		Categories: categories,
		Count:      len(products),
	})
}

// ensureLoaded loads the catalog on first use. A failed load leaves the
// cache empty and is reported as unavailable.
func (h *ProductHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if h.catalog.Loaded() {
		return true
	}
	if _, _, err := h.catalog.LoadAll(r.Context()); err != nil {
		middleware.RespondWithDomainError(w, err)
		return false
	}
	return true
}

// logFailure logs store outages as errors and rule violations at debug
func (h *ProductHandler) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("kind", string(domain.KindOf(err))))
	switch domain.KindOf(err) {
	case domain.KindStoreUnavailable, domain.KindUnknown:
		h.logger.Error(msg, fields...)
	default:
		h.logger.Debug(msg, fields...)
	}
}
