package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/logger"
	"weddingplan/internal/middleware"
	"weddingplan/internal/service"
)

// ImportHandler handles the vendor import session endpoints.
type ImportHandler struct {
	importService  service.ImportService
	maxUploadBytes int64
	log            *zap.Logger
}

// NewImportHandler creates a new ImportHandler. maxUploadBytes caps how much of an
// uploaded file is read; larger files are rejected as too large.
func NewImportHandler(importService service.ImportService, maxUploadBytes int64, log *zap.Logger) *ImportHandler {
	return &ImportHandler{importService: importService, maxUploadBytes: maxUploadBytes, log: logger.OrNop(log)}
}

// TextImportRequest is the JSON body of a text import.
type TextImportRequest struct {
	Text string `json:"text"`
}

// AnswerRequest is the body of a clarification answer.
type AnswerRequest struct {
	Value string `json:"value"`
}

// ExecuteRequest is the body of an execution attempt.
type ExecuteRequest struct {
	Proceed bool `json:"proceed"`
}

// Create handles POST /api/v1/imports
// @Summary Start a vendor import
// @Description Extracts vendor operations from free text (JSON {"text"}) or a PDF (multipart "file").
// @Tags imports
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "PDF to import"
// @Success 201 {object} APIResponse{data=session.View}
// @Failure 400 {object} APIResponse "Empty input or unsupported file"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 429 {object} APIResponse "Extraction providers rate limited"
// @Failure 502 {object} APIResponse "Extraction failed"
// @Security BearerAuth
// @Router /imports [post]
func (h *ImportHandler) Create(c *gin.Context) {
	weddingID, ok := weddingContext(c)
	if !ok {
		return
	}
	input, ok := h.bindSubmission(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	started, err := h.importService.Start(ctx, weddingID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	view, err := h.importService.Submit(ctx, weddingID, started.ID, input)
	if err != nil {
		if cancelErr := h.importService.Cancel(ctx, weddingID, started.ID); cancelErr != nil {
			h.log.Warn("importHandler.Create: discarding failed session",
				zap.String("session_id", started.ID.String()),
				zap.Error(cancelErr),
			)
		}
		HandleError(c, h.log, err)
		return
	}
	RespondCreated(c, view)
}

// Submit handles POST /api/v1/imports/:id/input
// @Summary Extract more input into an open import
// @Tags imports
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} APIResponse{data=session.View}
// @Security BearerAuth
// @Router /imports/{id}/input [post]
func (h *ImportHandler) Submit(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	input, ok := h.bindSubmission(c)
	if !ok {
		return
	}
	view, err := h.importService.Submit(c.Request.Context(), weddingID, sessionID, input)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// GetByID handles GET /api/v1/imports/:id
// @Summary Get an import session
// @Tags imports
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} APIResponse{data=session.View}
// @Failure 404 {object} APIResponse "Import not found or expired"
// @Security BearerAuth
// @Router /imports/{id} [get]
func (h *ImportHandler) GetByID(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	view, err := h.importService.Get(c.Request.Context(), weddingID, sessionID)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// Answer handles POST /api/v1/imports/:id/clarifications/:cid/answer
// @Summary Answer a clarification
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Import ID"
// @Param cid path string true "Clarification ID"
// @Param body body AnswerRequest true "Answer"
// @Success 200 {object} APIResponse{data=session.View}
// @Failure 400 {object} APIResponse "Answer is not an offered choice"
// @Security BearerAuth
// @Router /imports/{id}/clarifications/{cid}/answer [post]
func (h *ImportHandler) Answer(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	view, err := h.importService.Answer(c.Request.Context(), weddingID, sessionID, c.Param("cid"), req.Value)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// Skip handles POST /api/v1/imports/:id/clarifications/:cid/skip
// @Summary Skip a clarification
// @Description Skipping a required clarification leaves its operation blocked.
// @Tags imports
// @Produce json
// @Param id path string true "Import ID"
// @Param cid path string true "Clarification ID"
// @Success 200 {object} APIResponse{data=session.View}
// @Security BearerAuth
// @Router /imports/{id}/clarifications/{cid}/skip [post]
func (h *ImportHandler) Skip(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	view, err := h.importService.Skip(c.Request.Context(), weddingID, sessionID, c.Param("cid"))
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// RemoveOperation handles DELETE /api/v1/imports/:id/operations/:index
// @Summary Drop a proposed operation
// @Tags imports
// @Produce json
// @Param id path string true "Import ID"
// @Param index path int true "Operation index"
// @Success 200 {object} APIResponse{data=session.View}
// @Security BearerAuth
// @Router /imports/{id}/operations/{index} [delete]
func (h *ImportHandler) RemoveOperation(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	index, ok := operationIndex(c)
	if !ok {
		return
	}
	view, err := h.importService.RemoveOperation(c.Request.Context(), weddingID, sessionID, index)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// UpdateOperation handles PUT /api/v1/imports/:id/operations/:index
// @Summary Replace a proposed operation's vendor data
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Import ID"
// @Param index path int true "Operation index"
// @Param body body domain.VendorPatch true "Vendor data"
// @Success 200 {object} APIResponse{data=session.View}
// @Security BearerAuth
// @Router /imports/{id}/operations/{index} [put]
func (h *ImportHandler) UpdateOperation(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	index, ok := operationIndex(c)
	if !ok {
		return
	}
	var patch domain.VendorPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	view, err := h.importService.UpdateOperation(c.Request.Context(), weddingID, sessionID, index, patch)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, view)
}

// Execute handles POST /api/v1/imports/:id/execute
// @Summary Run the import's operations
// @Description Operations run in order and stop at the first failure; the failed and
// @Description unattempted operations stay in the import for a retry.
// @Tags imports
// @Accept json
// @Produce json
// @Param id path string true "Import ID"
// @Param body body ExecuteRequest false "Execution options"
// @Success 200 {object} APIResponse{data=service.ExecuteResult}
// @Failure 409 {object} APIResponse "Unresolved clarifications"
// @Failure 422 {object} APIResponse{data=service.ExecuteResult} "An operation failed"
// @Security BearerAuth
// @Router /imports/{id}/execute [post]
func (h *ImportHandler) Execute(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	var req ExecuteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}
	email, name := middleware.GetIdentity(c)

	result, err := h.importService.Execute(c.Request.Context(), weddingID, sessionID, service.ExecuteInput{
		Proceed:     req.Proceed,
		NotifyEmail: email,
		NotifyName:  name,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	if result.Failure != nil {
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Data:    result,
			Error: &APIError{
				Code:    "OPERATION_FAILED",
				Message: fmt.Sprintf("operation %d (%s) failed: %s", result.Failure.Index, result.Failure.Label, result.Failure.Message),
			},
		})
		return
	}
	RespondOK(c, result)
}

// Cancel handles DELETE /api/v1/imports/:id
// @Summary Discard an import
// @Tags imports
// @Param id path string true "Import ID"
// @Success 200 {object} APIResponse
// @Security BearerAuth
// @Router /imports/{id} [delete]
func (h *ImportHandler) Cancel(c *gin.Context) {
	weddingID, sessionID, ok := h.sessionContext(c)
	if !ok {
		return
	}
	if err := h.importService.Cancel(c.Request.Context(), weddingID, sessionID); err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"message": "import discarded"})
}

func (h *ImportHandler) sessionContext(c *gin.Context) (weddingID, sessionID uuid.UUID, ok bool) {
	if weddingID, ok = weddingContext(c); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if sessionID, ok = pathUUID(c, "id"); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return weddingID, sessionID, true
}

// multipartOverhead is the body allowance on top of maxUploadBytes for form boundaries,
// part headers and other fields.
const multipartOverhead = 1 << 20

// bindSubmission reads either a multipart "file" or a JSON {"text"} body.
func (h *ImportHandler) bindSubmission(c *gin.Context) (service.SubmitInput, bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req TextImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if bodyTooLarge(err) {
				HandleError(c, h.log, domain.ErrFileTooLarge)
				return service.SubmitInput{}, false
			}
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "expected JSON {\"text\"} or a multipart file")
			return service.SubmitInput{}, false
		}
		return service.SubmitInput{Text: req.Text}, true
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if bodyTooLarge(err) {
			h.log.Warn("importHandler.bindSubmission: request body over limit",
				zap.Int64("max_upload_bytes", h.maxUploadBytes))
			HandleError(c, h.log, domain.ErrFileTooLarge)
			return service.SubmitInput{}, false
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return service.SubmitInput{}, false
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return service.SubmitInput{}, false
	}
	return service.SubmitInput{PDF: data, Filename: header.Filename}, true
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func operationIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "operation index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
