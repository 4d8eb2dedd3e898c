package handlers

import (
	"errors"
	"net/http"

	"github.com/adi0900/RegLex-AI/models"
	"github.com/adi0900/RegLex-AI/service"

	"github.com/gin-gonic/gin"
)

// ComplianceHandler handles HTTP requests for document analysis.
type ComplianceHandler struct {
	complianceService *service.ComplianceService
	maxClauses        int
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(complianceService *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		maxClauses:        500,
	}
}

// AnalyzeRequest is the payload produced by the upstream extraction step:
// a document already segmented into clauses, plus optional summary data.
type AnalyzeRequest struct {
	DocumentID string                 `json:"document_id"`
	FileName   string                 `json:"file_name"`
	Summary    string                 `json:"summary"`
	Timelines  map[string]interface{} `json:"timelines"`
	Clauses    []models.Clause        `json:"clauses" binding:"required"`
}

// AnalyzeDocument handles POST /api/documents/analyze
func (h *ComplianceHandler) AnalyzeDocument(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if len(req.Clauses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_CLAUSES",
				"message": "At least one clause is required",
			},
		})
		return
	}

	if len(req.Clauses) > h.maxClauses {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TOO_MANY_CLAUSES",
				"message": "Clause count exceeds the per-document limit",
			},
		})
		return
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = models.NewDocumentID()
	}

	metadata := models.DocumentMetadata{
		"file_name": req.FileName,
		"summary":   req.Summary,
	}
	if req.Timelines != nil {
		metadata["timelines"] = req.Timelines
	}

	report, err := h.complianceService.ProcessDocument(c.Request.Context(), documentID, req.Clauses, metadata)
	if err != nil {
		// A storage failure still leaves a usable in-memory report; return
		// it with the failure reported rather than swallowed.
		if report != nil && errors.Is(err, service.ErrStorageFailed) {
			c.JSON(http.StatusOK, gin.H{
				"success":         true,
				"document_id":     documentID,
				"report":          report,
				"storage_warning": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"document_id": documentID,
		"report":      report,
	})
}
