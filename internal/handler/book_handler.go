package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-connect/campus-connect-api/internal/models"
	"github.com/campus-connect/campus-connect-api/internal/service"
	appErrors "github.com/campus-connect/campus-connect-api/pkg/errors"
	"github.com/campus-connect/campus-connect-api/pkg/response"
)

// BookHandler wires HTTP endpoints to the book service.
type BookHandler struct {
	service *service.BookService
}

// NewBookHandler creates a new handler.
func NewBookHandler(svc *service.BookService) *BookHandler {
	return &BookHandler{service: svc}
}

// Create godoc
// @Summary Share a book
// @Description Create a listing. Senior students only.
// @Tags Books
// @Accept json
// @Produce json
// @Param payload body models.CreateBookRequest true "Book payload"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /books [post]
func (h *BookHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid book payload"))
		return
	}

	book, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Book shared successfully", response.Payload{"book": book})
}

// List godoc
// @Summary List available books
// @Description Available listings newest first with owner and like counts
// @Tags Books
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /books [get]
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "books", books, len(books))
}

// Get godoc
// @Summary Get a book
// @Description Fetch one listing with owner contact and interest requests
// @Tags Books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	viewerID := ""
	if claims := claimsFromContext(c); claims != nil {
		viewerID = claims.UserID
	}

	book, err := h.service.Get(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "", response.Payload{"book": book})
}

// Update godoc
// @Summary Update a book
// @Description Partially update a listing. Owner only.
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param payload body models.UpdateBookRequest true "Book fields"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid book payload"))
		return
	}

	book, err := h.service.Update(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book updated successfully", response.Payload{"book": book})
}

// Delete godoc
// @Summary Delete a book
// @Description Remove a listing and its requests. Owner only.
// @Tags Books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book deleted successfully", nil)
}

// ToggleLike godoc
// @Summary Like or unlike a book
// @Description Toggle the caller's like on a listing
// @Tags Books
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id}/like [post]
func (h *BookHandler) ToggleLike(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	liked, book, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Book unliked"
	if liked {
		message = "Book liked"
	}
	response.OK(c, message, response.Payload{"book": book})
}

// Request godoc
// @Summary Request a book
// @Description Register interest in a listing. One request per student.
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param payload body models.RequestBookPayload true "Request payload"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /books/{id}/request [post]
func (h *BookHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.RequestBookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	book, err := h.service.RequestInterest(c.Request.Context(), c.Param("id"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book request sent successfully", response.Payload{"book": book})
}

// UpdateRequestStatus godoc
// @Summary Accept or reject a request
// @Description Update an interest request's status. Owner only; accepting reserves the book.
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param requestId path string true "Request id"
// @Param payload body models.UpdateRequestStatusPayload true "Status payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /books/{id}/request/{requestId} [put]
func (h *BookHandler) UpdateRequestStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.UpdateRequestStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	book, err := h.service.UpdateRequestStatus(c.Request.Context(), c.Param("id"), c.Param("requestId"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Request status updated", response.Payload{"book": book})
}

// MarkSold godoc
// @Summary Mark a book sold
// @Description Finalize a listing with the buyer. Owner only.
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Param payload body models.MarkSoldPayload true "Buyer payload"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /books/{id}/sold [put]
func (h *BookHandler) MarkSold(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload models.MarkSoldPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sold payload"))
		return
	}

	book, err := h.service.MarkSold(c.Request.Context(), c.Param("id"), claims, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Book marked as sold", response.Payload{"book": book})
}
