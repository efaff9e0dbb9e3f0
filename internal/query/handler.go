package query

import (
	"net/http"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the query API routes on the given router.
func (e *Engine) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/query/poll", e.HandlePoll)
	r.GET("/v1/query/names", e.HandleQueryNames)
	r.GET("/v1/query/version", e.HandleVersion)
}

// HandlePoll handles POST /v1/query/poll
func (e *Engine) HandlePoll(c *gin.Context) {
	var req v1.PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, epciserr.ErrorResponse{
			ErrorType: epciserr.HttpInvalidJsonError,
			Message:   "Invalid poll request",
			Details:   err.Error(),
		})
		return
	}

	results, err := e.Poll(c.Request.Context(), req.QueryName, req.Params)
	if err != nil {
		status, body := epciserr.Response(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, results)
}

// HandleQueryNames handles GET /v1/query/names
func (e *Engine) HandleQueryNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"queryNames": e.QueryNames()})
}

// HandleVersion handles GET /v1/query/version
func (e *Engine) HandleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"standardVersion": StandardVersion,
		"vendorVersion":   VendorVersion,
	})
}
