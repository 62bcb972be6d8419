package handlers

import (
	"net/http"
	"strconv"

	"channel-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

// pathID parses the :id path parameter, writing a 400 when it is not a positive integer.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Abort(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "invalid id")
		return 0, false
	}
	return id, true
}
