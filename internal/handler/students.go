package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/students"
)

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.students.List(c.Request.Context(), currentTeacher(c).SchoolID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": list})
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var in students.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	st, err := h.students.Create(c.Request.Context(), currentTeacher(c).SchoolID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusCreated, levelSuccess, st.FullName()+" added", gin.H{"student": st})
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, err := h.students.Get(c.Request.Context(), currentTeacher(c).SchoolID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": st})
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in students.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	st, err := h.students.Update(c.Request.Context(), currentTeacher(c).SchoolID, id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelSuccess, st.FullName()+" updated", gin.H{"student": st})
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), currentTeacher(c).SchoolID, id); err != nil {
		h.fail(c, err)
		return
	}
	notice(c, http.StatusOK, levelInfo, "student removed", nil)
}

// ImportStudents reads a roster workbook from the multipart "file" field.
func (h *Handler) ImportStudents(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		notice(c, http.StatusBadRequest, levelError, "attach an .xlsx roster as the file field", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	res, err := h.students.Import(c.Request.Context(), currentTeacher(c).SchoolID, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	level := levelSuccess
	if len(res.Errors) > 0 {
		level = levelWarning
	}
	msg := fmt.Sprintf("imported %d students, %d rows skipped", res.Imported, len(res.Errors))
	notice(c, http.StatusOK, level, msg, gin.H{"result": res})
}

func (h *Handler) StudentAttendance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.attendance.StudentProfile(c.Request.Context(), currentTeacher(c).SchoolID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
