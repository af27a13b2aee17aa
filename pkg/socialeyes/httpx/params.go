package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParamID parses a numeric path parameter. On failure it aborts the request
// with the given not-found message, since a malformed id can never match a row.
func ParamID(c *gin.Context, name, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		Error(c, http.StatusNotFound, notFound)
		return 0, false
	}
	return uint(id), true
}
