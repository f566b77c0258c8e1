package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/meguminnnnnnnnn/go-openai"

	"finassist/internal/chat"
	"finassist/internal/config"
	"finassist/internal/llm"
	"finassist/internal/models"
	"finassist/internal/rag/loaders"
	"finassist/internal/rag/pipeline"
	"finassist/internal/rag/schema"
	"finassist/pkg/logger"
)

// systemPrompt is the assistant persona. The retrieved document context is
// appended to it per request.
const systemPrompt = `You are an AI assistant specialized in financial services.%s
You help users with queries about loans, insurance, credit cards, EMI, and investments.
1. Answer customer queries on loans, insurance, credit cards, EMI, etc.
2. Ask questions to check user eligibility and suggest suitable loan products.
3. Give investment suggestions based on user preferences, risk profile, or current market trends.
Always keep your responses clear, concise, and helpful. If appropriate, ask follow-up questions to better assist the user.`

// API provides the HTTP handlers for the assistant service.
type API struct {
	log       *logger.Logger
	cfg       *config.AppConfig
	retrieval *pipeline.RetrievalPipeline
	indexing  *pipeline.IndexingPipeline
	generator *llm.Groq          // nil when no LLM credential is configured
	history   *chat.HistoryStore // nil when no history store is configured
	pdfLoader *loaders.PdfLoader
	videos    *http.Client

	initOnce sync.Once
}

// NewAPI creates a new API handler.
func NewAPI(
	log *logger.Logger,
	cfg *config.AppConfig,
	retrieval *pipeline.RetrievalPipeline,
	indexing *pipeline.IndexingPipeline,
	generator *llm.Groq,
	history *chat.HistoryStore,
) *API {
	return &API{
		log:       log,
		cfg:       cfg,
		retrieval: retrieval,
		indexing:  indexing,
		generator: generator,
		history:   history,
		pdfLoader: loaders.NewPdfLoader(),
		videos:    &http.Client{Timeout: 15 * time.Second},
	}
}

type chatRequest struct {
	Messages   []models.Message `json:"messages"`
	DocumentID string           `json:"documentId"`
	UserID     string           `json:"userId"`
}

// ChatHandler answers one chat turn, grounding the generation request with
// retrieved document context when available. Retrieval failures never fail
// the turn; the assistant falls back to ungrounded generation.
func (a *API) ChatHandler(c *gin.Context) {
	ctx := c.Request.Context()

	// One-time document initialization before the first chat answer.
	a.initOnce.Do(func() {
		if err := a.indexing.InitializeDocuments(ctx, a.cfg.Ingestion.Sources); err != nil {
			a.log.WithErr(err).Error("Document initialization failed")
		}
	})

	if a.generator == nil {
		a.log.Error("LLM API key is not set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messages array is required"})
		return
	}
	question := req.Messages[len(req.Messages)-1].Content
	if strings.TrimSpace(question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question content"})
		return
	}

	ragContext := ""
	if retrieved := a.retrieval.Run(ctx, question, req.DocumentID); retrieved != "" {
		ragContext = "\n\nRelevant document context:\n" + retrieved
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, ragContext),
	})
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	answer, err := a.generator.Generate(ctx, messages)
	if err != nil {
		a.respondGenerationError(c, err)
		return
	}

	a.saveHistory(c, &req, question, answer)

	c.JSON(http.StatusOK, gin.H{"content": answer})
}

// respondGenerationError maps a generation failure to the caller-facing
// status: invalid upstream credentials stay a server error, rate limiting is
// passed through, unreachability is a 503.
func (a *API) respondGenerationError(c *gin.Context, err error) {
	a.log.WithErr(err).Error("Generation request failed")

	genErr, ok := err.(*llm.GenerationError)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process your request"})
		return
	}
	switch genErr.UpstreamStatus {
	case http.StatusUnauthorized:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid API key"})
	case http.StatusTooManyRequests:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
	case 0:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Network error. Please check your connection."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate response"})
	}
}

func (a *API) saveHistory(c *gin.Context, req *chatRequest, question, answer string) {
	if a.history == nil {
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}
	record := &models.ChatRecord{
		UserID:     userID,
		Timestamp:  time.Now().UTC(),
		Message:    question,
		Response:   answer,
		DocumentID: req.DocumentID,
	}
	if err := a.history.Save(c.Request.Context(), record); err != nil {
		a.log.WithErr(err).Error("Failed to save chat record")
	}
}

// PdfHandler ingests an uploaded PDF through the full pipeline and reports
// the processing summary. Unlike the chat endpoint it answers failures with
// a verbose envelope including a stack trace, kept as a debugging aid for
// upload problems.
func (a *API) PdfHandler(c *gin.Context) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.Contains(contentType, "pdf") && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File must be a PDF"})
		return
	}

	a.log.WithPayload(map[string]interface{}{
		"filename": header.Filename,
		"size":     header.Size,
	}).Info("Processing PDF")

	data, err := io.ReadAll(file)
	if err != nil {
		a.respondPdfError(c, err)
		return
	}

	text, err := a.pdfLoader.LoadBytes(data, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No content found in PDF"})
		return
	}

	result, err := a.indexing.RunText(c.Request.Context(), text, header.Filename)
	if err != nil {
		if errors.Is(err, schema.ErrEmptyDocument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid text chunks found in PDF"})
			return
		}
		a.respondPdfError(c, err)
		return
	}

	preview := text
	if len(preview) > 1000 {
		preview = preview[:1000] + "..."
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"content":    preview,
		"documentId": result.DocumentID,
		"chunks":     result.Chunks,
		"vectors":    result.Vectors,
		"filename":   result.Filename,
		"processing": gin.H{
			"totalChunks":         result.Chunks,
			"embeddingDimensions": result.Dimensions,
			"storedPoints":        result.Chunks,
		},
	})
}

func (a *API) respondPdfError(c *gin.Context, err error) {
	a.log.WithErr(err).Error("Error processing PDF")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     err.Error(),
		"details":   err.Error(),
		"stack":     string(debug.Stack()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// VideosHandler proxies a video search to the YouTube Data API.
func (a *API) VideosHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter is required"})
		return
	}

	searchURL := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/search?part=snippet&maxResults=9&q=%s&type=video&key=%s",
		url.QueryEscape(query),
		url.QueryEscape(a.cfg.Videos.APIKey),
	)

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, searchURL, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build search request"})
		return
	}
	resp, err := a.videos.Do(req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Video search unavailable"})
		return
	}
	defer resp.Body.Close()

	c.DataFromReader(resp.StatusCode, resp.ContentLength, "application/json", resp.Body, nil)
}
