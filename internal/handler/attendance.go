package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cardattend/internal/attendance"
	"cardattend/internal/metrics"
	"cardattend/internal/scan"
	"cardattend/internal/students"
	"cardattend/internal/teachers"
)

// ---------- Scanning ----------

type scanRequest struct {
	Token string `json:"token"`
}

type keysRequest struct {
	Events []scan.InputEvent `json:"events"`
}

// ScanResult is the per-token answer of the recorder.
type ScanResult struct {
	Token   string             `json:"token,omitempty"`
	Outcome attendance.Outcome `json:"outcome"`
	Notice  Notice             `json:"notice"`
	Student *students.Student  `json:"student,omitempty"`
	Record  *attendance.Record `json:"record,omitempty"`
}

func scanResult(token string, res attendance.Result) (int, ScanResult) {
	out := ScanResult{Token: token, Outcome: res.Outcome, Student: res.Student, Record: res.Record}
	var status int
	switch res.Outcome {
	case attendance.Recorded:
		status = http.StatusCreated
		out.Notice = Notice{Level: levelSuccess, Message: res.Student.FullName() + " marked " + res.Record.Status}
	case attendance.AlreadyMarked:
		status = http.StatusOK
		out.Notice = Notice{Level: levelInfo, Message: res.Student.FullName() + " is already marked for today"}
	case attendance.UnknownCard:
		status = http.StatusNotFound
		out.Notice = Notice{Level: levelWarning, Message: "unknown card"}
	default:
		status = http.StatusBadGateway
		out.Notice = Notice{Level: levelError, Message: "could not record attendance, please try again"}
	}
	return status, out
}

// withStats adds refreshed dashboard stats for schoolID, the school of the
// student just recorded. A stats failure leaves them out rather than failing
// a recorded scan.
func (h *Handler) withStats(ctx context.Context, t teachers.Teacher, schoolID string, body gin.H) gin.H {
	t.SchoolID = &schoolID
	d, err := h.dashboard(ctx, t)
	if err != nil {
		h.log.Warn(ctx, "refresh stats after scan", "error", err)
		return body
	}
	body["stats"] = d
	return body
}

// RecordScan records one completed card token.
func (h *Handler) RecordScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		notice(c, http.StatusBadRequest, levelError, "token is required", nil)
		return
	}
	ctx := c.Request.Context()
	status, out := scanResult("", h.attendance.RecordScan(ctx, token))
	body := gin.H{"notice": out.Notice, "outcome": out.Outcome}
	if out.Student != nil {
		body["student"] = out.Student
	}
	if out.Record != nil {
		body["record"] = out.Record
		body = h.withStats(ctx, currentTeacher(c), out.Student.SchoolID, body)
	}
	c.JSON(status, body)
}

func (h *Handler) StartScanning(c *gin.Context) {
	h.sessions.Enable(currentTeacher(c).ID)
	notice(c, http.StatusOK, levelInfo, "scanning mode on, present a card", gin.H{"scanning": true})
}

func (h *Handler) StopScanning(c *gin.Context) {
	h.sessions.Disable(currentTeacher(c).ID)
	notice(c, http.StatusOK, levelInfo, "scanning mode off", gin.H{"scanning": false})
}

// FeedKeys runs keystrokes through the teacher's scanning session and records
// every token they complete.
func (h *Handler) FeedKeys(c *gin.Context) {
	var req keysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	t := currentTeacher(c)
	tokens, err := h.sessions.Feed(t.ID, req.Events)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	results := make([]ScanResult, 0, len(tokens))
	var lastSchool *string
	for _, tok := range tokens {
		metrics.TokensEmitted.Inc()
		res := h.attendance.RecordScan(ctx, tok)
		_, out := scanResult(tok, res)
		results = append(results, out)
		if res.Outcome == attendance.Recorded {
			lastSchool = &res.Student.SchoolID
		}
	}
	body := gin.H{"results": results}
	if lastSchool != nil {
		body = h.withStats(ctx, t, *lastSchool, body)
	}
	c.JSON(http.StatusOK, body)
}

// MarkAttendance is the manual present/absent path.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var in attendance.ManualInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c)
		return
	}
	ctx := c.Request.Context()
	t := currentTeacher(c)
	res, err := h.attendance.MarkManual(ctx, t.SchoolID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	status, out := scanResult("", res)
	body := gin.H{"notice": out.Notice, "outcome": out.Outcome}
	if out.Student != nil {
		body["student"] = out.Student
	}
	if out.Record != nil {
		body["record"] = out.Record
		body = h.withStats(ctx, t, out.Student.SchoolID, body)
	}
	c.JSON(status, body)
}
