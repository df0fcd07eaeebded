package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolhub/internal/app/controllers"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth              *controllers.AuthController
	User              *controllers.UserController
	Course            *controllers.CourseController
	Enrollment        *controllers.EnrollmentController
	EnrollmentRequest *controllers.EnrollmentRequestController
	Member            *controllers.MemberController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl *Controllers, authMiddleware *middleware.AuthMiddleware) {
	teacherOnly := authMiddleware.RoleRequired(models.RoleTeacher)
	studentOnly := authMiddleware.RoleRequired(models.RoleStudent)

	// --- Public routes ---
	router.POST("/register", ctrl.Auth.Register)
	router.POST("/login", ctrl.Auth.Login)
	router.POST("/logout", ctrl.Auth.Logout)
	router.POST("/forgot-password", ctrl.Auth.ForgotPassword)
	router.POST("/reset-password", ctrl.Auth.ResetPassword)

	courses := router.Group("/courses")
	{
		courses.GET("", ctrl.Course.ListCourses)
		courses.GET("/:id", ctrl.Course.GetCourse)
		courses.GET("/:id/details", ctrl.Course.GetCourseDetails)
	}

	// --- Authenticated routes ---
	authenticated := router.Group("")
	authenticated.Use(authMiddleware.Authenticate())
	{
		authenticated.GET("/me", ctrl.Auth.Me)

		users := authenticated.Group("/users")
		{
			users.GET("", ctrl.User.ListUsers)
			users.GET("/:id", ctrl.User.GetUser)
			users.POST("", teacherOnly, ctrl.User.CreateUser)
			// self only, checked in the handler
			users.PUT("/:id", ctrl.User.UpdateUser)
			users.DELETE("/:id", ctrl.User.DeleteUser)
		}

		coursesProtected := authenticated.Group("/courses")
		coursesProtected.Use(teacherOnly)
		{
			coursesProtected.POST("", ctrl.Course.CreateCourse)
			coursesProtected.PUT("/:id", ctrl.Course.UpdateCourse)
			coursesProtected.DELETE("/:id", ctrl.Course.DeleteCourse)
			coursesProtected.GET("/:id/students", ctrl.Course.GetCourseStudents)
			coursesProtected.DELETE("/:id/students/:studentId", ctrl.Course.RemoveStudent)
		}

		enrollments := authenticated.Group("/enrollments")
		{
			enrollments.GET("", ctrl.Enrollment.ListEnrollments)
			enrollments.GET("/:id", ctrl.Enrollment.GetEnrollment)
			enrollments.POST("", ctrl.Enrollment.CreateEnrollment)
			enrollments.PUT("/:id", teacherOnly, ctrl.Enrollment.UpdateEnrollment)
			enrollments.DELETE("/:id", teacherOnly, ctrl.Enrollment.DeleteEnrollment)
		}

		requests := authenticated.Group("/enrollment-requests")
		{
			requests.GET("", ctrl.EnrollmentRequest.ListRequests)
			requests.POST("", studentOnly, ctrl.EnrollmentRequest.SubmitRequest)
			requests.POST("/:id/decision", teacherOnly, ctrl.EnrollmentRequest.DecideRequest)
		}

		students := authenticated.Group("/students")
		students.Use(studentOnly)
		{
			students.GET("/:id/courses", ctrl.Member.GetStudentCourses)
			students.GET("/:id/available-courses", ctrl.Member.GetAvailableCourses)
		}

		teachers := authenticated.Group("/teachers")
		teachers.Use(teacherOnly)
		{
			teachers.GET("/:id/courses", ctrl.Member.GetTeacherCourses)
			teachers.GET("/:id/enrollment-requests", ctrl.Member.GetTeacherRequests)
		}
	}

	// Health check endpoint (public)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Success:   true,
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})
}
