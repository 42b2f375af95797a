package delivery

import (
	"errors"
	"io"
	"net/http"

	emaildomain "mail-assistant/internal/email/domain"
	emaildto "mail-assistant/internal/email/dto"
	"mail-assistant/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	syncUsecase   usecase.SyncUsecase
	searchUsecase usecase.SearchUsecase
	defaultUserID string
	defaultMax    int
}

func NewEmailHandler(syncUsecase usecase.SyncUsecase, searchUsecase usecase.SearchUsecase, defaultUserID string, defaultMax int) *EmailHandler {
	if defaultMax <= 0 {
		defaultMax = usecase.DefaultSyncMax
	}
	return &EmailHandler{
		syncUsecase:   syncUsecase,
		searchUsecase: searchUsecase,
		defaultUserID: defaultUserID,
		defaultMax:    defaultMax,
	}
}

// Sync starts a background sync and answers 202 right away.
func (h *EmailHandler) Sync(c *gin.Context) {
	var req emaildto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = h.defaultUserID
	}
	if req.MaxEmails <= 0 {
		req.MaxEmails = h.defaultMax
	}

	report := h.syncUsecase.StartAsync(emaildomain.SyncRequest{
		UserID:    req.UserID,
		MaxEmails: req.MaxEmails,
		Query:     req.Query,
	})

	c.JSON(http.StatusAccepted, emaildto.SyncStartedResponse{
		Status: "started",
		User:   req.UserID,
		RunID:  report.RunID,
	})
}

func (h *EmailHandler) SyncStatus(c *gin.Context) {
	userID := c.Param("user_id")
	report, err := h.syncUsecase.LastReport(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *EmailHandler) Search(c *gin.Context) {
	var req emaildto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = h.defaultUserID
	}

	state, err := h.searchUsecase.Search(c.Request.Context(), req.UserID, req.Query)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, emaildto.NewSearchResponse(state))
}

func statusFor(err error) int {
	var pipeErr *emaildomain.PipelineError
	switch {
	case errors.Is(err, emaildomain.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, emaildomain.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.As(err, &pipeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
