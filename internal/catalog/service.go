// Package catalog manages an owner's products and categories.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/scope"
)

var (
	// ErrProductNotFound is returned for products absent or owned by someone else.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrCategoryNotFound is returned for categories that are absent, foreign, or global on delete.
	ErrCategoryNotFound = errors.New("catalog: category not found")
	// ErrCategoryExists is returned when the owner already has a category by that name.
	ErrCategoryExists = errors.New("catalog: category already exists")
)

// Querier is the slice of the query layer the catalog needs.
type Querier interface {
	inventory.Querier
	CountProducts(ctx context.Context, arg dbgen.CountProductsParams) (int64, error)
	ListProducts(ctx context.Context, arg dbgen.ListProductsParams) ([]dbgen.Product, error)
	GetProductForUser(ctx context.Context, arg dbgen.GetProductForUserParams) (dbgen.Product, error)
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error)
	UpdateProduct(ctx context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error)
	DeleteProduct(ctx context.Context, arg dbgen.DeleteProductParams) (int64, error)
	ListCategoriesForUser(ctx context.Context, ownerID int64) ([]dbgen.Category, error)
	CreateCategory(ctx context.Context, arg dbgen.CreateCategoryParams) (dbgen.Category, error)
	DeleteCategory(ctx context.Context, arg dbgen.DeleteCategoryParams) (int64, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      Querier
	cache        *Cache
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      Querier
	Cache        *Cache
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// Product is the public product payload.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Category  *string   `json:"category"`
	Inventory int32     `json:"inventory"`
	InStock   bool      `json:"in_stock"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is the public category payload. Global categories have no owner.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Global bool   `json:"global"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// ProductInput creates a product.
type ProductInput struct {
	Name      string          `json:"name" validate:"required,max=120"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category" validate:"max=60"`
	Inventory int32           `json:"inventory" validate:"gte=0"`
	ImageURL  string          `json:"image_url" validate:"omitempty,url"`
}

// ProductPatch updates a product. Nil fields keep their stored value and an
// empty string clears category or image.
type ProductPatch struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Price    *decimal.Decimal `json:"price"`
	Category *string          `json:"category" validate:"omitempty,max=60"`
	ImageURL *string          `json:"image_url" validate:"omitempty,url"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Category = strings.TrimSpace(values.Get("category"))
	params.Search = strings.TrimSpace(values.Get("search"))
	if params.Search == "" {
		params.Search = strings.TrimSpace(values.Get("q"))
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = l
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts returns the owner's products with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, sc scope.Scope, params ListParams) (ProductListResult, error) {
	if !sc.Valid() {
		return ProductListResult{}, scope.ErrMissing
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = s.defaultLimit
	}
	category, search := common.Text(params.Category), common.Text(params.Search)
	total, err := s.queries.CountProducts(ctx, dbgen.CountProductsParams{UserID: sc.OwnerID, Category: category, Search: search})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, dbgen.ListProductsParams{
		UserID:      sc.OwnerID,
		Category:    category,
		Search:      search,
		LimitCount:  int32(params.Limit),
		OffsetCount: int32(common.Offset(params.Page, params.Limit)),
	})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, productOf(row))
	}
	return ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, sc scope.Scope, id int64) (Product, error) {
	if !sc.Valid() {
		return Product{}, scope.ErrMissing
	}
	row, err := s.queries.GetProductForUser(ctx, dbgen.GetProductForUserParams{ID: id, UserID: sc.OwnerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return productOf(row), nil
}

// CreateProduct stores a new product.
func (s *Service) CreateProduct(ctx context.Context, sc scope.Scope, in ProductInput) (Product, error) {
	if !sc.Valid() {
		return Product{}, scope.ErrMissing
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return Product{}, err
	}
	row, err := s.queries.CreateProduct(ctx, dbgen.CreateProductParams{
		Name:      in.Name,
		Price:     price,
		Category:  common.Text(in.Category),
		Inventory: in.Inventory,
		ImageUrl:  common.Text(in.ImageURL),
		UserID:    sc.OwnerID,
	})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info().Int64("owner_id", sc.OwnerID).Int64("product_id", row.ID).Msg("product created")
	return productOf(row), nil
}

// UpdateProduct applies patch. Price changes never touch settled lines, which
// keep the unit price frozen when they were added.
func (s *Service) UpdateProduct(ctx context.Context, sc scope.Scope, id int64, patch ProductPatch) (Product, error) {
	if !sc.Valid() {
		return Product{}, scope.ErrMissing
	}
	if err := common.ValidateStruct(patch); err != nil {
		return Product{}, err
	}
	current, err := s.queries.GetProductForUser(ctx, dbgen.GetProductForUserParams{ID: id, UserID: sc.OwnerID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	params := dbgen.UpdateProductParams{
		ID:       id,
		UserID:   sc.OwnerID,
		Name:     current.Name,
		Price:    current.Price,
		Category: current.Category,
		ImageUrl: current.ImageUrl,
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Product{}, common.FieldError("name", "name must not be blank", nil)
		}
		params.Name = name
	}
	if patch.Price != nil {
		if params.Price, err = normalizePrice(*patch.Price); err != nil {
			return Product{}, err
		}
	}
	if patch.Category != nil {
		params.Category = common.Text(*patch.Category)
	}
	if patch.ImageURL != nil {
		params.ImageUrl = common.Text(*patch.ImageURL)
	}
	row, err := s.queries.UpdateProduct(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return productOf(row), nil
}

// DeleteProduct removes a product. Settled lines keep referencing its id.
func (s *Service) DeleteProduct(ctx context.Context, sc scope.Scope, id int64) error {
	if !sc.Valid() {
		return scope.ErrMissing
	}
	n, err := s.queries.DeleteProduct(ctx, dbgen.DeleteProductParams{ID: id, UserID: sc.OwnerID})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	s.logger.Info().Int64("owner_id", sc.OwnerID).Int64("product_id", id).Msg("product deleted")
	return nil
}

// AdjustInventory applies a signed stock correction. Negative deltas can never
// push the count below zero.
func (s *Service) AdjustInventory(ctx context.Context, sc scope.Scope, id int64, delta int32) (Product, error) {
	if !sc.Valid() {
		return Product{}, scope.ErrMissing
	}
	if _, err := inventory.New(s.queries).Adjust(ctx, sc.OwnerID, id, delta); err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return s.GetProduct(ctx, sc, id)
}

// ListCategories returns the owner's categories plus the global ones, served
// from cache when possible.
func (s *Service) ListCategories(ctx context.Context, sc scope.Scope) ([]Category, error) {
	if !sc.Valid() {
		return nil, scope.ErrMissing
	}
	cached, ok, err := s.cache.Categories(ctx, sc.OwnerID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("owner_id", sc.OwnerID).Msg("category cache read failed")
	} else if ok {
		return cached, nil
	}
	rows, err := s.queries.ListCategoriesForUser(ctx, sc.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, Category{ID: row.ID, Name: row.Name, Global: !row.UserID.Valid})
	}
	if err := s.cache.StoreCategories(ctx, sc.OwnerID, out); err != nil {
		s.logger.Warn().Err(err).Int64("owner_id", sc.OwnerID).Msg("category cache write failed")
	}
	return out, nil
}

// CreateCategory adds an owner category. Names are unique per owner, ignoring case.
func (s *Service) CreateCategory(ctx context.Context, sc scope.Scope, name string) (Category, error) {
	if !sc.Valid() {
		return Category{}, scope.ErrMissing
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, common.FieldError("name", "name is required", nil)
	}
	if len(name) > 60 {
		return Category{}, common.FieldError("name", "name must be at most 60 characters", nil)
	}
	row, err := s.queries.CreateCategory(ctx, dbgen.CreateCategoryParams{Name: name, UserID: common.Int8(sc.OwnerID)})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Category{}, ErrCategoryExists
		}
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, sc.OwnerID)
	return Category{ID: row.ID, Name: row.Name}, nil
}

// DeleteCategory removes one of the owner's categories. Global categories are read-only.
func (s *Service) DeleteCategory(ctx context.Context, sc scope.Scope, id int64) error {
	if !sc.Valid() {
		return scope.ErrMissing
	}
	n, err := s.queries.DeleteCategory(ctx, dbgen.DeleteCategoryParams{ID: id, OwnerID: sc.OwnerID})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	s.invalidate(ctx, sc.OwnerID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID int64) {
	if err := s.cache.Forget(ctx, ownerID); err != nil {
		s.logger.Warn().Err(err).Int64("owner_id", ownerID).Msg("category cache invalidation failed")
	}
}

func productOf(p dbgen.Product) Product {
	return Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     pricing.Format(p.Price),
		Category:  common.TextPtr(p.Category),
		Inventory: p.Inventory,
		InStock:   p.Inventory > 0,
		ImageURL:  common.TextPtr(p.ImageUrl),
		CreatedAt: common.TimeOf(p.CreatedAt),
		UpdatedAt: common.TimeOf(p.UpdatedAt),
	}
}

func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, common.FieldError("price", "price must not be negative", nil)
	}
	return price.Round(pricing.Precision), nil
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
