package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/auth"
)

// ---------- Auth ----------

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) SignUp(c *gin.Context) {
	var in auth.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	sess, err := h.auth.SignUp(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusCreated, levelSuccess, "account created", gin.H{"session": sess})
}

func (h *Handler) SignIn(c *gin.Context) {
	var in auth.SignInInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	sess, err := h.auth.SignIn(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelSuccess, "signed in", gin.H{"session": sess})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		notice(c, http.StatusBadRequest, levelError, "refresh_token is required", nil)
		return
	}
	sess, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) SignOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		notice(c, http.StatusBadRequest, levelError, "refresh_token is required", nil)
		return
	}
	if err := h.auth.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelInfo, "signed out", nil)
}
