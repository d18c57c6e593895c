package handlers

import (
	"net/http"

	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/models"
	"github.com/F0xhopper/Cogno-MVP/repository"
	"github.com/F0xhopper/Cogno-MVP/service"

	"github.com/gin-gonic/gin"
)

// QueryHandler handles HTTP requests for question answering. It owns
// retrieval (embed the question, vector search) and hands the retrieved
// passages to the answer pipeline.
type QueryHandler struct {
	embedder    llm.Embedder
	chunkRepo   *repository.ChunkRepository
	ragService  *service.RAGService
	defaultTopK int
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(
	embedder llm.Embedder,
	chunkRepo *repository.ChunkRepository,
	ragService *service.RAGService,
	defaultTopK int,
) *QueryHandler {
	return &QueryHandler{
		embedder:    embedder,
		chunkRepo:   chunkRepo,
		ragService:  ragService,
		defaultTopK: defaultTopK,
	}
}

// QueryRequest represents the request body for answering a question
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

// Query handles POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
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

	topK := req.TopK
	if topK <= 0 {
		topK = h.defaultTopK
	}

	embedding, err := h.embedder.Embed(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": "failed to embed question",
			},
		})
		return
	}

	retrieved, err := h.chunkRepo.Search(c.Request.Context(), embedding, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "QUERY_FAILED",
				"message": "failed to search chunks",
			},
		})
		return
	}

	passages := make([]models.Passage, 0, len(retrieved))
	for _, chunk := range retrieved {
		passages = append(passages, models.Passage{
			Text:       chunk.Text,
			Source:     chunk.SourceFilename,
			ChunkIndex: chunk.Index,
		})
	}

	// An empty passage list is a normal outcome; the pipeline answers
	// it with a fixed insufficient-information response.
	result, err := h.ragService.Answer(c.Request.Context(), req.Question, passages, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GENERATION_FAILED",
				"message": "failed to generate answer",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
