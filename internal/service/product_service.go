package service

import (
	"strings"

	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// GetByID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// GetActiveBySlug 获取上架商品详情
func (s *ProductService) GetActiveBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrNotFound
	}
	return product, nil
}

// List 查询商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	CreatorID   uint
	Slug        string
	Name        string
	Description string
	Price       decimal.Decimal
	SortOrder   int
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	name := strings.TrimSpace(input.Name)
	if input.CreatorID == 0 || slug == "" || name == "" {
		return nil, ErrNotFound
	}
	if !input.Price.GreaterThan(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}

	product := &models.Product{
		CreatorID:   input.CreatorID,
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		PriceAmount: models.NewMoneyFromDecimal(input.Price),
		IsActive:    true,
		SortOrder:   input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetActive 上下架商品
func (s *ProductService) SetActive(id uint, active bool) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	product.IsActive = active
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}
