package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/model"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseRequestHandler struct {
	prService     service.PurchaseRequestService
	exportService service.ExportService
}

// NewPurchaseRequestHandler sets up the routing dependencies for purchase request endpoints
func NewPurchaseRequestHandler(prService service.PurchaseRequestService, exportService service.ExportService) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{prService: prService, exportService: exportService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PurchaseRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	prs := router.Group("/purchase-requests", middleware.RequireRole("admin", "finance", "user"))
	{
		prs.POST("", h.CreatePurchaseRequest)
		prs.GET("", h.ListPurchaseRequests)
		prs.GET("/export", h.ExportPurchaseRequests)
		prs.GET("/:id", h.GetPurchaseRequest)
		prs.PUT("/:id", h.UpdatePurchaseRequest)
		prs.POST("/:id/comment", h.AddComment)
		prs.DELETE("/:id", h.DeletePurchaseRequest)
	}
}

// CreatePurchaseRequest handles POST /purchase-requests
// @Summary      Create a purchase request
// @Description  Creates a purchase request and assigns it the next sequential PR number for the program
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePurchaseRequestDTO  true  "Create Purchase Request Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /purchase-requests [post]
func (h *PurchaseRequestHandler) CreatePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreatePurchaseRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pr, err := h.prService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, pr))
}

// ListPurchaseRequests handles GET /purchase-requests
// @Summary      List purchase requests
// @Description  Admins see everything, finance sees their accessible programs, users see their own requests within accessible programs
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.PurchaseRequest}
// @Router       /purchase-requests [get]
func (h *PurchaseRequestHandler) ListPurchaseRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	prs, err := h.prService.List(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prs))
}

// ExportPurchaseRequests handles GET /purchase-requests/export
// @Summary      Export purchase requests to Excel
// @Description  Downloads the caller's visible purchase requests as an XLSX workbook
// @Tags         purchase-requests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /purchase-requests/export [get]
func (h *PurchaseRequestHandler) ExportPurchaseRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportPurchaseRequests(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// GetPurchaseRequest handles GET /purchase-requests/:id
// @Summary      Get purchase request by ID
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase Request ID"
// @Success      200  {object}  response.Response{data=model.PurchaseRequest}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /purchase-requests/{id} [get]
func (h *PurchaseRequestHandler) GetPurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	pr, err := h.prService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pr))
}

// UpdatePurchaseRequest handles PUT /purchase-requests/:id.
// The same route serves two operations: finance reviews (approve/reject),
// creators edit their pending requests. Dispatch is by the caller's role.
// @Summary      Review or edit a purchase request
// @Description  Finance approves or rejects a pending request; the creator edits their own pending request
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Purchase Request ID"
// @Param        payload  body      object  true  "Review (status/rejection_reason) or edit payload"
// @Success      200      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /purchase-requests/{id} [put]
func (h *PurchaseRequestHandler) UpdatePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if actor.Role == model.RoleFinance {
		var req service.ReviewRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}

		pr, err := h.prService.Review(c.Request.Context(), actor, c.Param("id"), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, pr))
		return
	}

	var req service.UpdatePurchaseRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	pr, err := h.prService.Edit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pr))
}

// AddComment handles POST /purchase-requests/:id/comment
// @Summary      Comment on a purchase request
// @Description  Appends a comment; finance comments flag the request for revision
// @Tags         purchase-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Purchase Request ID"
// @Param        payload  body      object  true  "Comment payload"
// @Success      200      {object}  response.Response{data=model.PurchaseRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /purchase-requests/{id}/comment [post]
func (h *PurchaseRequestHandler) AddComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: comment is required"))
		return
	}

	pr, err := h.prService.AddComment(c.Request.Context(), actor, c.Param("id"), req.Comment)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pr))
}

// DeletePurchaseRequest handles DELETE /purchase-requests/:id
// @Summary      Delete purchase request
// @Description  The creator deletes their own pending request
// @Tags         purchase-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Purchase Request ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /purchase-requests/{id} [delete]
func (h *PurchaseRequestHandler) DeletePurchaseRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.prService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchase request deleted successfully"))
}
