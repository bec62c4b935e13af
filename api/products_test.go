package api_test

import (
	"net/http"
	"testing"

	"github.com/example/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductEndpoint(t *testing.T) {
	env := newTestEnv(t)

	product := createProductHTTP(t, env, "Teapot", "19.99", 5)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Teapot", product.Name)
	assert.True(t, product.IsAvailable)

	// missing required fields
	rec := env.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "incomplete",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	createProductHTTP(t, env, "Teapot", "19.99", 5)
	createProductHTTP(t, env, "Kettle", "34.50", 2)

	rec := env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	decode(t, rec, &products)
	assert.Len(t, products, 2)
}

func TestUpdateProductEndpoint(t *testing.T) {
	env := newTestEnv(t)
	product := createProductHTTP(t, env, "Teapot", "19.99", 5)

	rec := env.do(t, http.MethodPut, "/api/products/"+product.ID, map[string]interface{}{
		"price":    "24.99",
		"quantity": 9,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Product
	decode(t, rec, &updated)
	assert.Equal(t, "24.99", updated.Price.StringFixed(2))
	assert.Equal(t, 9, updated.Quantity)
	assert.Equal(t, "Teapot", updated.Name)

	rec = env.do(t, http.MethodPut, "/api/products/ghost", map[string]interface{}{"quantity": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProductEndpoint(t *testing.T) {
	env := newTestEnv(t)
	product := createProductHTTP(t, env, "Teapot", "19.99", 5)

	rec := env.do(t, http.MethodDelete, "/api/products/"+product.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/"+product.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductImagesEndpoints(t *testing.T) {
	env := newTestEnv(t)
	product := createProductHTTP(t, env, "Teapot", "19.99", 5)

	rec := env.do(t, http.MethodPost, "/api/products/"+product.ID+"/images", map[string]interface{}{
		"images": []string{"front.jpg", "side.jpg"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Product
	decode(t, rec, &updated)
	assert.Equal(t, []string{"front.jpg", "side.jpg"}, updated.Images)

	rec = env.do(t, http.MethodDelete, "/api/products/"+product.ID+"/images/front.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "image removed")

	rec = env.do(t, http.MethodDelete, "/api/products/"+product.ID+"/images/ghost.jpg", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
