package models

import "time"

// EnrollmentRequest is a student's application to join a course, decided by the course teacher
type EnrollmentRequest struct {
	ID        string        `json:"id" db:"id" bson:"_id"`
	CourseID  string        `json:"course" db:"course_id" bson:"course_id"`
	StudentID string        `json:"student" db:"student_id" bson:"student_id"`
	Status    RequestStatus `json:"status" db:"status" bson:"status" example:"pending"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}
