package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	programService  service.ProgramService
	sequenceService service.SequenceService
}

// NewProgramHandler sets up the routing dependencies for Program endpoints
func NewProgramHandler(programService service.ProgramService, sequenceService service.SequenceService) *ProgramHandler {
	return &ProgramHandler{programService: programService, sequenceService: sequenceService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ProgramHandler) RegisterRoutes(router *gin.RouterGroup) {
	programs := router.Group("/programs")
	{
		// Everyone sees the programs they may submit against
		programs.GET("", middleware.RequireRole("admin", "finance", "user"), h.ListAccessible)
		programs.GET("/accessible", middleware.RequireRole("admin", "finance", "user"), h.ListAccessible)
		programs.GET("/:id", middleware.RequireRole("admin", "finance", "user"), h.GetProgram)
		programs.GET("/:id/next-pr-number", middleware.RequireRole("admin", "finance", "user"), h.PreviewNextPRNumber)

		// Program management is admin-only
		programs.POST("", middleware.RequireRole("admin"), h.CreateProgram)
		programs.PUT("/:id", middleware.RequireRole("admin"), h.UpdateProgram)
		programs.DELETE("/:id", middleware.RequireRole("admin"), h.DeactivateProgram)
	}
}

// CreateProgram handles POST /programs
// @Summary      Create a new program
// @Description  Registers a program with a unique name and 3-10 character alphanumeric code
// @Tags         programs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProgramRequest  true  "Create Program Payload"
// @Success      201      {object}  response.Response{data=model.Program}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	program, err := h.programService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, program))
}

// ListAccessible handles GET /programs/accessible
// @Summary      List accessible programs
// @Description  Returns all active programs for admins, the granted subset for other roles
// @Tags         programs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Program}
// @Router       /programs/accessible [get]
func (h *ProgramHandler) ListAccessible(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	programs, err := h.programService.ListAccessible(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, programs))
}

// GetProgram handles GET /programs/:id
// @Summary      Get program by ID
// @Tags         programs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Program ID"
// @Success      200  {object}  response.Response{data=model.Program}
// @Failure      404  {object}  response.Response
// @Router       /programs/{id} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	program, err := h.programService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, program))
}

// PreviewNextPRNumber handles GET /programs/:id/next-pr-number
// @Summary      Preview the next PR number
// @Description  Computes the PR number the next purchase request would receive, without reserving it
// @Tags         programs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Program ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /programs/{id}/next-pr-number [get]
func (h *ProgramHandler) PreviewNextPRNumber(c *gin.Context) {
	prNumber, err := h.sequenceService.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]string{
		"next_pr_number": prNumber,
	}))
}

// UpdateProgram handles PUT /programs/:id
// @Summary      Update program
// @Description  Updates a program's name, description, or active flag. The code is immutable.
// @Tags         programs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Program ID"
// @Param        payload  body      service.UpdateProgramRequest  true  "Update Program Payload"
// @Success      200      {object}  response.Response{data=model.Program}
// @Failure      400      {object}  response.Response
// @Router       /programs/{id} [put]
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	program, err := h.programService.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, program))
}

// DeactivateProgram handles DELETE /programs/:id
// @Summary      Deactivate program
// @Description  Soft-disables a program; history and PR numbering state are retained
// @Tags         programs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Program ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /programs/{id} [delete]
func (h *ProgramHandler) DeactivateProgram(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.programService.Deactivate(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Program deactivated"))
}
