package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/manabase-builder/backend/internal/services"
)

type CardHandler struct {
	resolver *services.Resolver
	index    *services.IndexService
}

func NewCardHandler(resolver *services.Resolver, index *services.IndexService) *CardHandler {
	return &CardHandler{resolver: resolver, index: index}
}

// SearchCards handles GET /api/scryfall?q=<query> against the local index.
func (h *CardHandler) SearchCards(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}

	if !h.index.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "card index not ready yet"})
		return
	}

	results := h.index.Search(query)
	if results == nil {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetCard handles GET /api/scryfall/card?name=<exact_name>.
func (h *CardHandler) GetCard(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card name required"})
		return
	}

	if !h.index.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "card index not ready yet"})
		return
	}

	card, err := h.index.LookupExact(name)
	if err != nil {
		var nf *services.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}

// ResolveCard handles GET /api/cards/resolve?name=<name>. A missing card
// resolves to a stub, never an error.
func (h *CardHandler) ResolveCard(c *gin.Context) {
	name := c.Query("name")

	card, err := h.resolver.Resolve(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "card name required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}

type batchRequest struct {
	Names []string `json:"names" binding:"required"`
}

// ResolveBatch handles POST /api/cards/batch. Results preserve input
// order; unresolvable names come back as stubs.
func (h *CardHandler) ResolveBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "names array required"})
		return
	}

	cards, err := h.resolver.ResolveBatch(c.Request.Context(), req.Names)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}
