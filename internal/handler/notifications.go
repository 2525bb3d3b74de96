package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/notify"
	"cardattend/internal/stats"
	"cardattend/internal/validate"
)

// ---------- Notifications ----------

// ListNotifications returns the recent absence feed.
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.attendance.Absences(c.Request.Context(), currentTeacher(c).SchoolID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// StreamNotifications pushes attendance inserts of the teacher's school as
// server-sent events. ?status= narrows the feed and defaults to absent; "any"
// sends every insert. The subscription ends with the request.
func (h *Handler) StreamNotifications(c *gin.Context) {
	t := currentTeacher(c)
	if t.SchoolID == nil {
		h.fail(c, validate.Field("school_id", "you must be linked to a school first"))
		return
	}
	status := c.DefaultQuery("status", stats.StatusAbsent)
	switch status {
	case "any":
		status = ""
	case stats.StatusAbsent, stats.StatusPresent:
	default:
		h.fail(c, validate.Field("status", "status must be one of [present absent any]"))
		return
	}

	ctx := c.Request.Context()
	sub, err := h.broker.Subscribe(ctx, notify.Filter{
		Type:     notify.TypeAttendanceInserted,
		SchoolID: *t.SchoolID,
		Status:   status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"status": status})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("attendance", e)
			return true
		case <-ctx.Done():
			return false
		}
	})
	h.log.Debug(ctx, "notification stream closed", "teacher_id", t.ID)
}
