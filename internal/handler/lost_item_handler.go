package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/service"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
	"github.com/campus-connect/campus-connect-api/pkg/response"
)

// LostItemHandler wires HTTP endpoints to the lost item service.
type LostItemHandler struct {
	service *service.LostItemService
}

// NewLostItemHandler creates a new handler.
func NewLostItemHandler(svc *service.LostItemService) *LostItemHandler {
	return &LostItemHandler{service: svc}
}

// Create godoc
// @Summary Report a lost item
// @Description Create a lost item report with an image
// @Tags LostItems
// @Accept json
// @Produce json
// @Param payload body models.CreateLostItemRequest true "Item payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /lost-items [post]
func (h *LostItemHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lost item payload"))
		return
	}

	item, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Lost item reported successfully", response.Payload{"item": item})
}

// List godoc
// @Summary List lost items
// @Description All reports newest first with reporter identity
// @Tags LostItems
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /lost-items [get]
func (h *LostItemHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "items", items, len(items))
}

// Get godoc
// @Summary Get a lost item
// @Description One report with the reporter's contact details
// @Tags LostItems
// @Produce json
// @Param id path string true "Item id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lost-items/{id} [get]
func (h *LostItemHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"item": item})
}

// Update godoc
// @Summary Update a lost item
// @Description Partially update a report. Reporter only.
// @Tags LostItems
// @Accept json
// @Produce json
// @Param id path string true "Item id"
// @Param payload body models.UpdateLostItemRequest true "Item fields"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lost-items/{id} [put]
func (h *LostItemHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lost item payload"))
		return
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item updated successfully", response.Payload{"item": item})
}

// MarkFound godoc
// @Summary Mark an item found
// @Description Record that the item was found with the finder's contact
// @Tags LostItems
// @Accept json
// @Produce json
// @Param id path string true "Item id"
// @Param payload body models.FinderContact false "Finder contact"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lost-items/{id}/found [put]
func (h *LostItemHandler) MarkFound(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		FinderContact models.FinderContact `json:"finderContact"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid finder payload"))
		return
	}

	item, err := h.service.MarkFound(c.Request.Context(), c.Param("id"), claims, payload.FinderContact)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item marked as found", response.Payload{"item": item})
}

// Claim godoc
// @Summary Claim a found item
// @Description Close the report once the item is back with its owner
// @Tags LostItems
// @Produce json
// @Param id path string true "Item id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lost-items/{id}/claim [post]
func (h *LostItemHandler) Claim(c *gin.Context) {
	item, err := h.service.Claim(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item claimed successfully", response.Payload{"item": item})
}

// Delete godoc
// @Summary Delete a lost item
// @Description Remove a report. Reporter or admin only.
// @Tags LostItems
// @Produce json
// @Param id path string true "Item id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lost-items/{id} [delete]
func (h *LostItemHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item deleted successfully", nil)
}
