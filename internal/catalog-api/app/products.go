package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
)

var _ ports.ProductService = (*ProductService)(nil)

type ProductService struct {
	products ports.ProductRepository
	settings Settings
	now      func() time.Time
}

func NewProductService(products ports.ProductRepository, settings Settings) *ProductService {
	return &ProductService{products: products, settings: settings, now: utcNow}
}

func (s *ProductService) CreateProduct(ctx context.Context, in entity.NewProduct) (*entity.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	p := &entity.Product{
		ID:            entity.NewID(),
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Size:          in.Size,
		Category:      in.Category,
		Brand:         in.Brand,
		Attributes:    in.Attributes,
		StockQuantity: in.StockQuantity,
		Images:        in.Images,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	slog.InfoContext(ctx, "product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	if !entity.ValidID(id) {
		return nil, entity.InvalidIDError("product", id)
	}
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context, filter entity.ProductFilter, page entity.PageRequest) (entity.Page[*entity.Product], error) {
	if err := page.Validate(s.settings.MaxPageSize); err != nil {
		return entity.Page[*entity.Product]{}, err
	}
	if err := filter.Validate(); err != nil {
		return entity.Page[*entity.Product]{}, err
	}

	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return entity.Page[*entity.Product]{}, fmt.Errorf("count products: %w", err)
	}
	items, err := s.products.List(ctx, filter, page)
	if err != nil {
		return entity.Page[*entity.Product]{}, fmt.Errorf("list products: %w", err)
	}

	return entity.Page[*entity.Product]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, upd entity.ProductUpdate) (*entity.Product, error) {
	if !entity.ValidID(id) {
		return nil, entity.InvalidIDError("product", id)
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	p, err := s.products.Update(ctx, id, upd, s.now())
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product updated", "product_id", id)
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if !entity.ValidID(id) {
		return entity.InvalidIDError("product", id)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}
