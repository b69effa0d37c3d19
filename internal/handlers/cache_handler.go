package handlers

import (
	"net/http"
	"time"

	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/realtime"

	"github.com/gin-gonic/gin"
)

// CacheStore is the cache served by the API.
type CacheStore = cache.TTLCache[string, string, cache.Backend[string, string]]

// PutEntryRequest represents the request payload for inserting a key
type PutEntryRequest struct {
	Value *string `json:"value" binding:"required"`
}

// EntryResponse represents a cache entry
type EntryResponse struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	TTL       string     `json:"ttl,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StatsResponse represents cache counters and sizes
type StatsResponse struct {
	cache.Snapshot
	Pending       int    `json:"pending"`
	Entries       int    `json:"entries"`
	Subscribers   int    `json:"subscribers"`
	DroppedEvents int64  `json:"droppedEvents"`
	TTL           string `json:"ttl"`
}

type CacheHandler struct {
	cache *CacheStore
	hub   *realtime.Hub
}

func NewCacheHandler(c *CacheStore, hub *realtime.Hub) *CacheHandler {
	return &CacheHandler{cache: c, hub: hub}
}

// PutEntry handles PUT /api/cache/:key
// Overwriting a key keeps its original expiry, which is what expiresAt reports.
func (h *CacheHandler) PutEntry(c *gin.Context) {
	key := c.Param("key")

	var req PutEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. A value is required.",
		})
		return
	}

	h.cache.Insert(key, *req.Value)
	h.hub.Publish(realtime.NewEvent(realtime.EventKeyInserted, key))

	resp := EntryResponse{
		Key:   key,
		Value: *req.Value,
		TTL:   h.cache.Config().TTL.String(),
	}
	if at, ok := h.cache.ExpiresAt(key); ok {
		at = at.UTC()
		resp.ExpiresAt = &at
	}
	c.JSON(http.StatusCreated, resp)
}

// GetEntry handles GET /api/cache/:key
func (h *CacheHandler) GetEntry(c *gin.Context) {
	key := c.Param("key")

	g := h.cache.Read()
	value, ok := g.Storage().Get(key)
	g.Release()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, EntryResponse{Key: key, Value: value})
}

// ListKeys handles GET /api/cache
func (h *CacheHandler) ListKeys(c *gin.Context) {
	var keys []string
	h.cache.View(func(s cache.Backend[string, string]) {
		keys = s.Keys()
	})
	if keys == nil {
		keys = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":  keys,
		"count": len(keys),
	})
}

// GetStats handles GET /api/stats
func (h *CacheHandler) GetStats(c *gin.Context) {
	var entries int
	h.cache.View(func(s cache.Backend[string, string]) {
		entries = s.Len()
	})

	c.JSON(http.StatusOK, StatsResponse{
		Snapshot:      h.cache.Stats(),
		Pending:       h.cache.Pending(),
		Entries:       entries,
		Subscribers:   h.hub.Count(),
		DroppedEvents: h.hub.Dropped(),
		TTL:           h.cache.Config().TTL.String(),
	})
}
