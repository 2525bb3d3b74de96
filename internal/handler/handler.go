// Package handler exposes the attendance services over HTTP/JSON.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardattend/internal/attendance"
	"cardattend/internal/auth"
	"cardattend/internal/logging"
	"cardattend/internal/notify"
	"cardattend/internal/scan"
	"cardattend/internal/schedule"
	"cardattend/internal/stats"
	"cardattend/internal/students"
	"cardattend/internal/teachers"
)

type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (auth.Session, error)
	SignIn(ctx context.Context, in auth.SignInInput) (auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

type TeacherService interface {
	ByUserID(ctx context.Context, userID string) (teachers.Teacher, error)
	Schools(ctx context.Context) ([]teachers.School, error)
	CreateSchool(ctx context.Context, in teachers.SchoolInput) (teachers.School, error)
	UpdateSettings(ctx context.Context, t teachers.Teacher, in teachers.SettingsInput) (teachers.Teacher, error)
}

type StudentService interface {
	Create(ctx context.Context, schoolID *string, in students.Input) (students.Student, error)
	List(ctx context.Context, schoolID *string) ([]students.Student, error)
	Get(ctx context.Context, schoolID *string, id string) (students.Student, error)
	Update(ctx context.Context, schoolID *string, id string, in students.Input) (students.Student, error)
	Delete(ctx context.Context, schoolID *string, id string) error
	Count(ctx context.Context, schoolID *string) (int, error)
	Import(ctx context.Context, schoolID *string, r io.Reader) (students.ImportResult, error)
}

type ScheduleService interface {
	CreateClass(ctx context.Context, teacherID string, schoolID *string, in schedule.ClassInput) (schedule.Class, error)
	Classes(ctx context.Context, teacherID string) ([]schedule.Class, error)
	CountClasses(ctx context.Context, teacherID string) (int, error)
	DeleteClass(ctx context.Context, teacherID, classID string) error
	Lessons(ctx context.Context, teacherID string) ([]schedule.Lesson, error)
	Today(ctx context.Context, teacherID string) ([]schedule.Lesson, error)
	Week(ctx context.Context, teacherID string) (schedule.WeekGrid, error)
	CreateLesson(ctx context.Context, teacherID string, in schedule.LessonInput) (schedule.Lesson, error)
	UpdateLesson(ctx context.Context, teacherID, lessonID string, in schedule.LessonInput) (schedule.Lesson, error)
	DeleteLesson(ctx context.Context, teacherID, lessonID string) error
}

type AttendanceService interface {
	RecordScan(ctx context.Context, token string) attendance.Result
	MarkManual(ctx context.Context, schoolID *string, in attendance.ManualInput) (attendance.Result, error)
	Dashboard(ctx context.Context, schoolID *string, studentCount, classCount int) (stats.Dashboard, error)
	StudentProfile(ctx context.Context, schoolID *string, studentID string) (attendance.Profile, error)
	Absences(ctx context.Context, schoolID *string) ([]attendance.Absence, error)
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Auth       AuthService
	Teachers   TeacherService
	Students   StudentService
	Schedule   ScheduleService
	Attendance AttendanceService
	Sessions   *scan.Sessions
	Broker     notify.Broker
	Log        logging.Logger
	SigningKey string
	Issuer     string
}

type Handler struct {
	auth       AuthService
	teachers   TeacherService
	students   StudentService
	schedule   ScheduleService
	attendance AttendanceService
	sessions   *scan.Sessions
	broker     notify.Broker
	log        logging.Logger
	signingKey string
	issuer     string
}

func New(d Deps) *Handler {
	if d.Sessions == nil {
		d.Sessions = scan.NewSessions()
	}
	return &Handler{
		auth:       d.Auth,
		teachers:   d.Teachers,
		students:   d.Students,
		schedule:   d.Schedule,
		attendance: d.Attendance,
		sessions:   d.Sessions,
		broker:     d.Broker,
		log:        logging.For(d.Log, "http"),
		signingKey: d.SigningKey,
		issuer:     d.Issuer,
	}
}

// Routes registers the /v1 API on r.
func (h *Handler) Routes(r gin.IRouter) {
	v1 := r.Group("/v1")

	a := v1.Group("/auth")
	{
		a.POST("/signup", h.SignUp)
		a.POST("/signin", h.SignIn)
		a.POST("/refresh", h.Refresh)
		a.POST("/signout", h.SignOut)
	}

	p := v1.Group("", auth.Bearer(h.signingKey, h.issuer), h.loadTeacher)
	{
		p.GET("/dashboard", h.Dashboard)

		p.GET("/students", h.ListStudents)
		p.POST("/students", h.CreateStudent)
		p.POST("/students/import", h.ImportStudents)
		p.GET("/students/:id", h.GetStudent)
		p.PUT("/students/:id", h.UpdateStudent)
		p.DELETE("/students/:id", h.DeleteStudent)
		p.GET("/students/:id/attendance", h.StudentAttendance)

		p.GET("/classes", h.ListClasses)
		p.POST("/classes", h.CreateClass)
		p.DELETE("/classes/:id", h.DeleteClass)

		p.GET("/lessons", h.ListLessons)
		p.POST("/lessons", h.CreateLesson)
		p.GET("/lessons/today", h.TodayLessons)
		p.PUT("/lessons/:id", h.UpdateLesson)
		p.DELETE("/lessons/:id", h.DeleteLesson)
		p.GET("/schedule/week", h.WeekSchedule)

		p.GET("/schools", h.ListSchools)
		p.POST("/schools", h.CreateSchool)
		p.GET("/settings", h.GetSettings)
		p.PUT("/settings", h.UpdateSettings)

		p.POST("/scans", h.RecordScan)
		p.POST("/scanner/session", h.StartScanning)
		p.DELETE("/scanner/session", h.StopScanning)
		p.POST("/scanner/keys", h.FeedKeys)
		p.POST("/attendance", h.MarkAttendance)

		p.GET("/notifications", h.ListNotifications)
		p.GET("/notifications/stream", h.StreamNotifications)
	}
}

const teacherKey = "teacher"

// loadTeacher resolves the teacher behind the access token's user.
func (h *Handler) loadTeacher(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		abortNotice(c, http.StatusUnauthorized, levelError, "not signed in")
		return
	}
	t, err := h.teachers.ByUserID(c.Request.Context(), claims.Subject)
	if err != nil {
		h.log.Warn(c.Request.Context(), "no teacher for token subject", "user_id", claims.Subject, "error", err)
		abortNotice(c, http.StatusUnauthorized, levelError, "no teacher profile for this account")
		return
	}
	c.Set(teacherKey, t)
	c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "teacher_id", t.ID))
	c.Next()
}

func currentTeacher(c *gin.Context) teachers.Teacher {
	v, _ := c.Get(teacherKey)
	t, _ := v.(teachers.Teacher)
	return t
}

// dashboard builds fresh stats for the teacher's school.
func (h *Handler) dashboard(ctx context.Context, t teachers.Teacher) (stats.Dashboard, error) {
	studentCount, err := h.students.Count(ctx, t.SchoolID)
	if err != nil {
		return stats.Dashboard{}, err
	}
	classCount, err := h.schedule.CountClasses(ctx, t.ID)
	if err != nil {
		return stats.Dashboard{}, err
	}
	return h.attendance.Dashboard(ctx, t.SchoolID, studentCount, classCount)
}

// ---------- Dashboard ----------

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.dashboard(c.Request.Context(), currentTeacher(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
