package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/schedule"
)

// ---------- Classes ----------

func (h *Handler) ListClasses(c *gin.Context) {
	list, err := h.schedule.Classes(c.Request.Context(), currentTeacher(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

func (h *Handler) CreateClass(c *gin.Context) {
	var in schedule.ClassInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	t := currentTeacher(c)
	cl, err := h.schedule.CreateClass(c.Request.Context(), t.ID, t.SchoolID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusCreated, levelSuccess, "class "+cl.Name+" created", gin.H{"class": cl})
}

func (h *Handler) DeleteClass(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedule.DeleteClass(c.Request.Context(), currentTeacher(c).ID, id); err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelInfo, "class removed", nil)
}

// ---------- Lessons ----------

func (h *Handler) ListLessons(c *gin.Context) {
	list, err := h.schedule.Lessons(c.Request.Context(), currentTeacher(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": list})
}

func (h *Handler) TodayLessons(c *gin.Context) {
	list, err := h.schedule.Today(c.Request.Context(), currentTeacher(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": list})
}

func (h *Handler) WeekSchedule(c *gin.Context) {
	g, err := h.schedule.Week(c.Request.Context(), currentTeacher(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) CreateLesson(c *gin.Context) {
	var in schedule.LessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	l, err := h.schedule.CreateLesson(c.Request.Context(), currentTeacher(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusCreated, levelSuccess, "lesson added", gin.H{"lesson": l})
}

func (h *Handler) UpdateLesson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in schedule.LessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	l, err := h.schedule.UpdateLesson(c.Request.Context(), currentTeacher(c).ID, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelSuccess, "lesson updated", gin.H{"lesson": l})
}

func (h *Handler) DeleteLesson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedule.DeleteLesson(c.Request.Context(), currentTeacher(c).ID, id); err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelInfo, "lesson removed", nil)
}
