package dto

// CreateEnrollmentRequest records a student in a course
type CreateEnrollmentRequest struct {
	Course  string `json:"course"`
	Student string `json:"student"`
}

// UpdateEnrollmentRequest moves an enrollment to another course or student
type UpdateEnrollmentRequest struct {
	Course  *string `json:"course,omitempty"`
	Student *string `json:"student,omitempty"`
}

// SubmitEnrollmentRequest is sent by a student asking to join a course
type SubmitEnrollmentRequest struct {
	Course string `json:"course" binding:"required"`
}

// DecideEnrollmentRequest is sent by the course teacher
type DecideEnrollmentRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected" example:"approved"`
}
