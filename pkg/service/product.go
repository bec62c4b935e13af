package service

import (
	"context"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService owns catalog reads and writes. Detail reads go through the
// product cache when one is configured; every write invalidates it.
type ProductService struct {
	store  repository.Store
	cache  *repository.ProductCache
	logger *zap.Logger
}

func NewProductService(store repository.Store, cache *repository.ProductCache, logger *zap.Logger) *ProductService {
	return &ProductService{store: store, cache: cache, logger: logger}
}

type CreateProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description string
	Quantity    int
	IsAvailable *bool
	Images      []string
}

// UpdateProductInput updates only the fields that are set.
type UpdateProductInput struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	Quantity    *int
	IsAvailable *bool
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if in.Name == "" || in.Description == "" || in.Price.IsZero() {
		return nil, &models.ValidationError{Msg: "missing required fields: name, price, description"}
	}
	if in.Price.IsNegative() {
		return nil, &models.ValidationError{Msg: "price must be positive"}
	}
	if in.Quantity < 0 {
		return nil, &models.ValidationError{Msg: "quantity must be non-negative"}
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
		Quantity:    in.Quantity,
		IsAvailable: available,
		Images:      images,
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.Name))
	return product, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("product cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, product); err != nil {
		s.logger.Warn("product cache write failed", zap.Error(err))
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.store.Products().List(ctx)
}

func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (*models.Product, error) {
	if in.Price != nil && !in.Price.IsPositive() {
		return nil, &models.ValidationError{Msg: "price must be positive"}
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, &models.ValidationError{Msg: "quantity must be non-negative"}
	}

	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Quantity != nil {
		product.Quantity = *in.Quantity
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}

	if err := s.store.Products().Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.Info("product updated", zap.String("product_id", id))
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.store.Products().SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// AttachImages appends filenames to the product's image list. Upload and
// storage mechanics live outside this service.
func (s *ProductService) AttachImages(ctx context.Context, id string, names []string) (*models.Product, error) {
	if len(names) == 0 {
		return nil, &models.ValidationError{Msg: "at least one image name is required"}
	}

	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Images = append(product.Images, names...)

	if err := s.store.Products().Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return product, nil
}

// RemoveImage drops one filename from the product's image list.
func (s *ProductService) RemoveImage(ctx context.Context, id, name string) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, img := range product.Images {
		if img == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, &models.NotFoundError{Entity: "image", ID: name}
	}
	product.Images = append(product.Images[:idx], product.Images[idx+1:]...)

	if err := s.store.Products().Save(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return product, nil
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
