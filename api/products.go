package api

import (
	"net/http"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	IsAvailable *bool           `json:"isAvailable"`
	Images      []string        `json:"images"`
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Quantity    *int             `json:"quantity"`
	IsAvailable *bool            `json:"isAvailable"`
}

type attachImagesRequest struct {
	Images []string `json:"images" binding:"required"`
}

func (s *Server) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := s.products.Create(c.Request.Context(), service.CreateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		IsAvailable: req.IsAvailable,
		Images:      req.Images,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.products.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := s.products.Update(c.Request.Context(), c.Param("id"), service.UpdateProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) attachImages(c *gin.Context) {
	var req attachImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	product, err := s.products.AttachImages(c.Request.Context(), c.Param("id"), req.Images)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) removeImage(c *gin.Context) {
	product, err := s.products.RemoveImage(c.Request.Context(), c.Param("id"), c.Param("imageName"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image removed", "product": product})
}
