package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/model"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type CashRequestHandler struct {
	crService     service.CashRequestService
	exportService service.ExportService
}

// NewCashRequestHandler sets up the routing dependencies for cash request endpoints
func NewCashRequestHandler(crService service.CashRequestService, exportService service.ExportService) *CashRequestHandler {
	return &CashRequestHandler{crService: crService, exportService: exportService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CashRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	crs := router.Group("/cash-requests", middleware.RequireRole("admin", "finance", "user"))
	{
		crs.POST("", h.CreateCashRequest)
		crs.GET("", h.ListCashRequests)
		crs.GET("/export", h.ExportCashRequests)
		crs.GET("/:id", h.GetCashRequest)
		crs.PATCH("/:id", h.UpdateCashRequest)
		crs.DELETE("/:id", h.DeleteCashRequest)
	}
}

// CreateCashRequest handles POST /cash-requests
// @Summary      Create a cash request
// @Description  Creates a cash request; the vendor is linked by id, matched by name, or auto-created from the manual details
// @Tags         cash-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCashRequestDTO  true  "Create Cash Request Payload"
// @Success      201      {object}  response.Response{data=model.CashRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /cash-requests [post]
func (h *CashRequestHandler) CreateCashRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateCashRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cr, err := h.crService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, cr))
}

// ListCashRequests handles GET /cash-requests
// @Summary      List cash requests
// @Description  Admins see everything, finance sees their accessible programs, users see their own requests
// @Tags         cash-requests
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.CashRequest}
// @Router       /cash-requests [get]
func (h *CashRequestHandler) ListCashRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	crs, err := h.crService.List(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, crs))
}

// ExportCashRequests handles GET /cash-requests/export
// @Summary      Export cash requests to Excel
// @Description  Downloads the caller's visible cash requests as an XLSX workbook
// @Tags         cash-requests
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /cash-requests/export [get]
func (h *CashRequestHandler) ExportCashRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.ExportCashRequests(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// GetCashRequest handles GET /cash-requests/:id
// @Summary      Get cash request by ID
// @Tags         cash-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cash Request ID"
// @Success      200  {object}  response.Response{data=model.CashRequest}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /cash-requests/{id} [get]
func (h *CashRequestHandler) GetCashRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	cr, err := h.crService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// UpdateCashRequest handles PATCH /cash-requests/:id.
// Same dual-purpose route as purchase requests: finance reviews, the creator
// edits the legacy free-form fields while pending.
// @Summary      Review or edit a cash request
// @Description  Finance approves or rejects a pending request; the creator edits their own pending request
// @Tags         cash-requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Cash Request ID"
// @Param        payload  body      object  true  "Review (status/rejection_reason) or edit payload"
// @Success      200      {object}  response.Response{data=model.CashRequest}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /cash-requests/{id} [patch]
func (h *CashRequestHandler) UpdateCashRequest(c *gin.Context) {
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

		cr, err := h.crService.Review(c.Request.Context(), actor, c.Param("id"), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
		return
	}

	var req service.UpdateCashRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	cr, err := h.crService.Edit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cr))
}

// DeleteCashRequest handles DELETE /cash-requests/:id
// @Summary      Delete cash request
// @Description  The creator deletes their own pending request
// @Tags         cash-requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cash Request ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /cash-requests/{id} [delete]
func (h *CashRequestHandler) DeleteCashRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.crService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Cash request deleted successfully"))
}
