package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/vbdiar/errors"
)

// DataResponse is the success envelope for every API payload.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// RespondWithError writes the structured error envelope. Application
// errors carry their own HTTP status; anything else becomes a 500 so
// internal details stay out of the response.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	internal := errors.Internal(err)
	c.JSON(http.StatusInternalServerError, internal.ToResponse())
}

// RespondOK writes a 200 with the data envelope.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondAccepted writes a 202, used for asynchronous job submission.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, DataResponse{Data: data})
}
