package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/creatorhub/internal/http/response"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminListProducts 商品列表 (Admin)
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	search := strings.TrimSpace(c.Query("search"))
	var creatorID uint
	if raw := strings.TrimSpace(c.Query("creator_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			creatorID = uint(parsed)
		}
	}

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: creatorID,
		Search:    search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "商品获取失败", err)
		return
	}

	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	CreatorID   uint    `json:"creator_id" binding:"required"`
	Slug        string  `json:"slug" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	PriceAmount float64 `json:"price_amount" binding:"required"`
	SortOrder   int     `json:"sort_order"`
}

// AdminCreateProduct 创建商品
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	product, err := h.ProductService.Create(service.CreateProductInput{
		CreatorID:   req.CreatorID,
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.PriceAmount),
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, service.ErrProductPriceInvalid) {
			respondError(c, response.CodeBadRequest, "商品价格无效", nil)
			return
		}
		respondError(c, response.CodeInternal, "商品创建失败", err)
		return
	}

	response.Success(c, product)
}

// SetProductActiveRequest 商品上下架请求
type SetProductActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AdminSetProductActive 商品上下架
func (h *Handler) AdminSetProductActive(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "商品标识无效", nil)
		return
	}

	var req SetProductActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	product, err := h.ProductService.SetActive(uint(productID), *req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "商品不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "商品更新失败", err)
		return
	}

	response.Success(c, product)
}
