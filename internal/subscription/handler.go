package subscription

import (
	"net/http"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the subscription API routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/subscriptions", s.HandleSubscribe)
	r.DELETE("/v1/subscriptions/:id", s.HandleUnsubscribe)
	r.GET("/v1/subscriptions", s.HandleSubscriptionIDs)
}

// HandleSubscribe handles POST /v1/subscriptions
func (s *Service) HandleSubscribe(c *gin.Context) {
	var req v1.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, epciserr.ErrorResponse{
			ErrorType: epciserr.HttpInvalidJsonError,
			Message:   "Invalid subscribe request",
			Details:   err.Error(),
		})
		return
	}

	if err := s.Subscribe(c.Request.Context(), &req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscriptionID": req.SubscriptionID})
}

// HandleUnsubscribe handles DELETE /v1/subscriptions/:id
func (s *Service) HandleUnsubscribe(c *gin.Context) {
	if err := s.Unsubscribe(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSubscriptionIDs handles GET /v1/subscriptions?queryName=
func (s *Service) HandleSubscriptionIDs(c *gin.Context) {
	queryName := c.Query("queryName")
	if queryName == "" {
		writeError(c, epciserr.Validation("queryName is required"))
		return
	}

	ids, err := s.SubscriptionIDs(queryName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptionIDs": ids})
}

func writeError(c *gin.Context, err error) {
	status, body := epciserr.Response(err)
	c.JSON(status, body)
}
