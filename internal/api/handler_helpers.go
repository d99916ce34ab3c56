package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/aquaguide/internal"
	"github.com/yourname/aquaguide/internal/auth"
	"github.com/yourname/aquaguide/internal/response"
)

// HandleError writes the envelope for err. Validation, not-found and auth messages are
// user-facing; storage and internal failures are logged in full and reported as fallback.
func HandleError(c *gin.Context, logger internal.Logger, err error, fallback string) {
	requestID := c.GetString("request_id")
	kind := internal.KindOf(err)
	var status int
	msg := err.Error()
	switch kind {
	case internal.KindValidation:
		status = http.StatusBadRequest
	case internal.KindNotFound:
		status = http.StatusNotFound
	case internal.KindUnauthorized:
		status = http.StatusUnauthorized
	case internal.KindStorage:
		status = http.StatusInternalServerError
		msg = fallback
	default:
		status = http.StatusInternalServerError
		msg = "internal error"
	}
	if status >= 500 {
		logger.Errorf("[request_id=%s] %s: %v", requestID, fallback, err)
	} else {
		logger.Warnf("[request_id=%s] %v", requestID, err)
	}
	c.JSON(status, response.Failure(status, kind, msg))
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] %s %s ok", requestID, c.Request.Method, c.FullPath())
	c.JSON(http.StatusOK, response.Success(data, meta))
}

// bindJSON decodes the body into dst, turning decode failures into validation errors.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return internal.Validationf("invalid JSON body")
	}
	return nil
}

// userID is the id of the authenticated caller. Handlers are only mounted behind
// auth.AuthMiddleware, so an empty id is rejected by the service as a validation error.
func userID(c *gin.Context) string {
	if u := auth.CurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}
