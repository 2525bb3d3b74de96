package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/teachers"
)

// ---------- Settings ----------

func (h *Handler) ListSchools(c *gin.Context) {
	list, err := h.teachers.Schools(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []teachers.School{}
	}
	c.JSON(http.StatusOK, gin.H{"schools": list})
}

func (h *Handler) CreateSchool(c *gin.Context) {
	var in teachers.SchoolInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	s, err := h.teachers.CreateSchool(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusCreated, levelSuccess, "school "+s.Name+" created", gin.H{"school": s})
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teacher": currentTeacher(c)})
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var in teachers.SettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	t, err := h.teachers.UpdateSettings(c.Request.Context(), currentTeacher(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelSuccess, "settings saved", gin.H{"teacher": t})
}
