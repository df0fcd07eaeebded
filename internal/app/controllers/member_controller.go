package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/services"
	"github.com/yigit/schoolhub/internal/middleware"
)

// MemberController serves the per-student and per-teacher views
type MemberController struct {
	courseService  *services.CourseService
	requestService *services.EnrollmentRequestService
	logger         zerolog.Logger
}

// NewMemberController creates a new MemberController
func NewMemberController(courseService *services.CourseService, requestService *services.EnrollmentRequestService, logger zerolog.Logger) *MemberController {
	return &MemberController{
		courseService:  courseService,
		requestService: requestService,
		logger:         logger,
	}
}

// selfOnly aborts unless the caller asks about their own id
func selfOnly(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := auth.RequireSelfQuery(middleware.CurrentIdentity(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return "", false
	}
	return id, true
}

// GetStudentCourses
// @Summary Courses of a student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentCoursesResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/courses [get]
func (c *MemberController) GetStudentCourses(ctx *gin.Context) {
	id, ok := selfOnly(ctx)
	if !ok {
		return
	}
	result, err := c.courseService.StudentCourses(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

// GetAvailableCourses
// @Summary Courses a student can still join
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id}/available-courses [get]
func (c *MemberController) GetAvailableCourses(ctx *gin.Context) {
	id, ok := selfOnly(ctx)
	if !ok {
		return
	}
	courses, err := c.courseService.AvailableCourses(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(courses))
}

// GetTeacherCourses
// @Summary Courses of a teacher
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherCoursesResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/courses [get]
func (c *MemberController) GetTeacherCourses(ctx *gin.Context) {
	id, ok := selfOnly(ctx)
	if !ok {
		return
	}
	result, err := c.courseService.TeacherCourses(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result))
}

// GetTeacherRequests
// @Summary Pending enrollment requests for a teacher's courses
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} dto.APIResponse{data=[]models.EnrollmentRequest}
// @Failure 403 {object} dto.ErrorResponse
// @Router /teachers/{id}/enrollment-requests [get]
func (c *MemberController) GetTeacherRequests(ctx *gin.Context) {
	id, ok := selfOnly(ctx)
	if !ok {
		return
	}
	requests, err := c.requestService.PendingForTeacher(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(requests))
}
