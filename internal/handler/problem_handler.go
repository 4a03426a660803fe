package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/service"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
	"github.com/campus-connect/campus-connect-api/pkg/response"
)

// ProblemHandler wires HTTP endpoints to the problem service.
type ProblemHandler struct {
	service *service.ProblemService
	export  *service.ExportService
}

// NewProblemHandler creates a new handler.
func NewProblemHandler(svc *service.ProblemService, export *service.ExportService) *ProblemHandler {
	return &ProblemHandler{service: svc, export: export}
}

// Create godoc
// @Summary Report a problem
// @Description Create a problem report, optionally anonymous
// @Tags Problems
// @Accept json
// @Produce json
// @Param payload body models.CreateProblemRequest true "Problem payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /problems [post]
func (h *ProblemHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid problem payload"))
		return
	}

	problem, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Problem reported successfully", response.Payload{"problem": problem})
}

// List godoc
// @Summary List problems
// @Description All reports newest first with vote counts
// @Tags Problems
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /problems [get]
func (h *ProblemHandler) List(c *gin.Context) {
	problems, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "problems", problems, len(problems))
}

// Get godoc
// @Summary Get a problem
// @Description One report with images, comments and the caller's vote
// @Tags Problems
// @Produce json
// @Param id path string true "Problem id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id} [get]
func (h *ProblemHandler) Get(c *gin.Context) {
	viewerID := ""
	if claims := claimsFromContext(c); claims != nil {
		viewerID = claims.UserID
	}

	problem, err := h.service.Get(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"problem": problem})
}

// Update godoc
// @Summary Update a problem
// @Description Partially update a report. Reporter only.
// @Tags Problems
// @Accept json
// @Produce json
// @Param id path string true "Problem id"
// @Param payload body models.UpdateProblemRequest true "Problem fields"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id} [put]
func (h *ProblemHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid problem payload"))
		return
	}

	problem, err := h.service.Update(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Problem updated successfully", response.Payload{"problem": problem})
}

// Delete godoc
// @Summary Delete a problem
// @Description Remove a report with its votes and comments. Reporter or admin only.
// @Tags Problems
// @Produce json
// @Param id path string true "Problem id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id} [delete]
func (h *ProblemHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Problem deleted successfully", nil)
}

// Vote godoc
// @Summary Vote on a problem
// @Description Cast or switch an upvote/downvote
// @Tags Problems
// @Accept json
// @Produce json
// @Param id path string true "Problem id"
// @Param payload body models.VotePayload true "Vote payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id}/vote [post]
func (h *ProblemHandler) Vote(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.VotePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid vote payload"))
		return
	}

	problem, err := h.service.Vote(c.Request.Context(), c.Param("id"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Vote recorded", response.Payload{"problem": problem})
}

// Comment godoc
// @Summary Comment on a problem
// @Description Append a comment, optionally anonymous
// @Tags Problems
// @Accept json
// @Produce json
// @Param id path string true "Problem id"
// @Param payload body models.CommentPayload true "Comment payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id}/comment [post]
func (h *ProblemHandler) Comment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.CommentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	problem, err := h.service.Comment(c.Request.Context(), c.Param("id"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Comment added", response.Payload{"problem": problem})
}

// UpdateStatus godoc
// @Summary Update problem status
// @Description Transition the workflow state. Admin or staff only.
// @Tags Problems
// @Accept json
// @Produce json
// @Param id path string true "Problem id"
// @Param payload body models.UpdateProblemStatusPayload true "Status payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /problems/{id}/status [put]
func (h *ProblemHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.UpdateProblemStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	problem, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Problem status updated", response.Payload{"problem": problem})
}

// Export godoc
// @Summary Export problems
// @Description Download the problem register as CSV or PDF. Admin or staff only.
// @Tags Problems
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /problems/export [get]
func (h *ProblemHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.export.Problems(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
