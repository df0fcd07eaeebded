package dto

import "github.com/yigit/schoolhub/internal/app/models"

// CreateCourseRequest represents course creation data.
// Students, when present, replaces the course roster in the enrollment ledger.
type CreateCourseRequest struct {
	Name        string   `json:"name" binding:"required" example:"Algebra I"`
	Description string   `json:"description" example:"Linear equations"`
	Teacher     string   `json:"teacher"`
	Students    []string `json:"students,omitempty"`
}

// UpdateCourseRequest represents a partial course update
type UpdateCourseRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Teacher     *string   `json:"teacher,omitempty"`
	Students    *[]string `json:"students,omitempty"`
}

// CourseDetailsResponse is a course with its teacher and enrolled students resolved
type CourseDetailsResponse struct {
	Course   *models.Course  `json:"course"`
	Teacher  *UserResponse   `json:"teacher"`
	Students []*UserResponse `json:"students"`
}

// StudentCoursesResponse lists the courses a student is enrolled in
type StudentCoursesResponse struct {
	Student *UserResponse    `json:"student"`
	Courses []*models.Course `json:"courses"`
}

// TeacherCoursesResponse lists the courses a teacher teaches
type TeacherCoursesResponse struct {
	Teacher *UserResponse    `json:"teacher"`
	Courses []*models.Course `json:"courses"`
}
