package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
)

// reserved query parameters; every other parameter is a filter.
var reserved = map[string]bool{"page": true, "page_size": true, "search": true}

type Handler struct {
	registry *Registry
	log      *zap.Logger
}

func NewHandler(registry *Registry, log *zap.Logger) *Handler {
	return &Handler{registry: registry, log: log}
}

// Register mounts the admin routes on rg. Callers are expected to have
// restricted rg to admins already.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/resources", h.listResources)
	rg.GET("/:resource", h.listRows)
}

func (h *Handler) listResources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.registry.Resources()})
}

func (h *Handler) listRows(c *gin.Context) {
	q := Query{
		Search:  c.Query("search"),
		Filters: make(map[string]string),
		Page: domain.Page{
			Page:     queryInt(c, "page"),
			PageSize: queryInt(c, "page_size"),
		},
	}
	for key, values := range c.Request.URL.Query() {
		if reserved[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		q.Filters[key] = values[0]
	}

	page, err := h.registry.List(c.Request.Context(), c.Param("resource"), q)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"data": page})
	case errors.Is(err, ErrUnknownResource):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownFilter), errors.Is(err, ErrBadFilterValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("admin listing failed", zap.String("resource", c.Param("resource")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}
