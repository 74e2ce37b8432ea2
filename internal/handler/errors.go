package handler

import (
	"procurement/internal/middleware"
	"procurement/internal/model"
	"procurement/pkg/apperror"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail writes a classified service error as the standard error envelope.
func fail(c *gin.Context, err error) {
	code := apperror.StatusCode(err)
	c.JSON(code, response.Error(code, err.Error()))
}

// requireActor pulls the authenticated actor out of the request context.
// Returns false (after writing the error response) if the middleware did not
// run or left malformed values.
func requireActor(c *gin.Context) (model.Actor, bool) {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		fail(c, err)
		return model.Actor{}, false
	}
	return actor, true
}
