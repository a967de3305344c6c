package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sd-transit/internal/db"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.observeAuth("register", "invalid")
		badRequest(c, msgMissingFields)
		return
	}
	id, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	h.observeAuth("register", outcome(err))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	h.log.WithField("user_id", id).Info("user registered")
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": id})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.observeAuth("login", "invalid")
		badRequest(c, msgMissingLogin)
		return
	}
	u, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	h.observeAuth("login", outcome(err))

	entry := h.log.WithFields(deviceFields(c.Request.UserAgent())).WithField("ip", c.ClientIP())
	if err != nil {
		entry.WithField("outcome", outcome(err)).Warn("login rejected")
		h.abortWithError(c, err)
		return
	}
	entry.WithFields(logrus.Fields{"user_id": u.ID}).Info("login")
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "token": token})
}

func (h *handler) me(c *gin.Context) {
	u, _ := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

func currentUser(c *gin.Context) (*db.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*db.User)
	return u, ok
}
