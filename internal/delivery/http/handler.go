package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/usecase"
)

const (
	serviceName = "recipebox-backend"
	version     = "1.0.0"
)

// ImageService is the image side of the core as seen by the HTTP layer
type ImageService interface {
	domain.ImageResolver
	ResolveAll(ctx context.Context, identifiers []string, concurrency int) map[string]bool
	Stats() usecase.ResolverStats
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog domain.CatalogFetcher
	images  ImageService
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog domain.CatalogFetcher, images ImageService) *Handler {
	return &Handler{
		catalog: catalog,
		images:  images,
	}
}

// RecipesResponse is the body of a successful catalog request
type RecipesResponse struct {
	Recipes domain.Catalog `json:"recipes"`
	Count   int            `json:"count"`
	Empty   bool           `json:"empty"`
}

// PrefetchRequest lists image references to warm into the cache
type PrefetchRequest struct {
	URLs []string `json:"urls" binding:"required,min=1,max=200,dive,required"`
}

// PrefetchResponse reports how many references resolved
type PrefetchResponse struct {
	Resolved int      `json:"resolved"`
	Failed   []string `json:"failed"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": version,
	}
	if h.images != nil {
		body["images"] = h.images.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// GetRecipes fetches the catalog and returns it in server order
func (h *Handler) GetRecipes(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.MessageTransport})
		return
	}

	recipes, err := h.catalog.FetchCatalog(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(catalogErrorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	if recipes == nil {
		recipes = domain.Catalog{}
	}

	c.JSON(http.StatusOK, RecipesResponse{
		Recipes: recipes,
		Count:   len(recipes),
		Empty:   len(recipes) == 0,
	})
}

// GetImage resolves ?url= to image bytes. A failed resolution is a 404 so the
// client shows its placeholder.
func (h *Handler) GetImage(c *gin.Context) {
	identifier := c.Query("url")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	if h.images == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image unavailable"})
		return
	}

	img, ok := h.images.Resolve(c.Request.Context(), identifier)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "image unavailable"})
		return
	}

	etag := `"` + img.Key.String() + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("X-Image-Width", strconv.Itoa(img.Width()))
	c.Header("X-Image-Height", strconv.Itoa(img.Height()))
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, img.ContentType(), img.Data)
}

// PrefetchImages warms the cache for a batch of image references
func (h *Handler) PrefetchImages(c *gin.Context) {
	var req PrefetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"urls\": [...]} with 1-200 entries"})
		return
	}
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image cache unavailable"})
		return
	}

	results := h.images.ResolveAll(c.Request.Context(), req.URLs, 0)

	resp := PrefetchResponse{Failed: []string{}}
	for _, id := range req.URLs {
		ok, seen := results[id]
		if !seen {
			continue
		}
		if ok {
			resp.Resolved++
		} else {
			resp.Failed = append(resp.Failed, id)
		}
		delete(results, id)
	}

	c.JSON(http.StatusOK, resp)
}

// catalogErrorStatus maps the catalog error taxonomy to an HTTP status
func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidEndpoint):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
