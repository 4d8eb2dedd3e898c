package handlers

import (
	"net/http"
	"strconv"

	"github.com/adi0900/RegLex-AI/storage"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves stored document metadata and results.
type DocumentHandler struct {
	store storage.DocumentStore
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(store storage.DocumentStore) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_LIMIT",
					"message": "limit must be a positive integer",
				},
			})
			return
		}
		limit = parsed
	}

	ids, err := h.store.ListDocumentIDs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ids,
		"total":   len(ids),
	})
}

// GetMetadata handles GET /api/documents/:id
func (h *DocumentHandler) GetMetadata(c *gin.Context) {
	documentID := c.Param("id")

	metadata, found, err := h.store.GetMetadata(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    metadata,
	})
}

// GetResults handles GET /api/documents/:id/results
func (h *DocumentHandler) GetResults(c *gin.Context) {
	documentID := c.Param("id")

	report, found, err := h.store.GetResults(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Results not found for document",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	documentID := c.Param("id")

	if err := h.store.DeleteDocument(c.Request.Context(), documentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
