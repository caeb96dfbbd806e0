// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limccn/omi-cache-manager/internal/api/dto"
	"github.com/limccn/omi-cache-manager/internal/api/middleware"
	"github.com/limccn/omi-cache-manager/internal/core/cache"
)

// CacheService is the part of the cache manager used by the handlers.
type CacheService interface {
	Get(ctx context.Context, args ...any) (any, error)
	Clear(ctx context.Context) (bool, error)
	Execute(ctx context.Context, args ...any) (any, error)
	Backend() cache.Backend
}

// CacheHandler serves the cache demo endpoints.
type CacheHandler struct {
	cache CacheService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cacheService CacheService) *CacheHandler {
	return &CacheHandler{cache: cacheService}
}

// GetKey handles GET /mock/cache/:key.
// @Summary Read a key
// @Description Returns the cached value of key through the cache manager
// @Tags Cache
// @Produce json
// @Param key path string true "Cache key"
// @Success 200 {object} dto.CacheResponse "Key found"
// @Failure 404 {object} dto.CacheResponse "Key not found"
// @Failure 500 {object} dto.ErrorResponse "Cache failure"
// @Router /mock/cache/{key} [get]
func (h *CacheHandler) GetKey(c *gin.Context) {
	key := c.Param("key")

	value, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	value = jsonValue(value)
	if empty(value) {
		c.JSON(http.StatusNotFound, dto.Failure(dto.CodeNotFound))
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.CacheEntry{Key: key, Value: value}))
}

// SetKey handles GET /mock/cache/:key/:value.
// @Summary Write a key
// @Description Stores value under key directly through the cache backend
// @Tags Cache
// @Produce json
// @Param key path string true "Cache key"
// @Param value path string true "Value"
// @Success 200 {object} dto.CacheResponse "Key stored"
// @Failure 500 {object} dto.CacheResponse "Key not stored"
// @Router /mock/cache/{key}/{value} [get]
func (h *CacheHandler) SetKey(c *gin.Context) {
	key, value := c.Param("key"), c.Param("value")

	ok, err := h.cache.Backend().Set(c.Request.Context(), key, value)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.Failure(dto.CodeFailed))
		return
	}

	c.JSON(http.StatusOK, dto.Success(dto.CacheEntry{Key: key, Value: value}))
}

// ClearCache handles GET /mock/clearcache.
// @Summary Clear the cache
// @Description Removes every key of the backend's namespace
// @Tags Cache
// @Produce json
// @Success 200 {object} dto.CacheResponse "Cache cleared"
// @Failure 500 {object} dto.CacheResponse "Cache not cleared"
// @Router /mock/clearcache [get]
func (h *CacheHandler) ClearCache(c *gin.Context) {
	ok, err := h.cache.Clear(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.Failure(dto.CodeFailed))
		return
	}

	c.JSON(http.StatusOK, dto.Success(nil))
}

// jsonValue makes raw replies JSON friendly.
func jsonValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
