package models

import "time"

// Enrollment is a single row of the enrollment ledger.
// (CourseID, StudentID) is unique across the ledger.
type Enrollment struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	CourseID  string    `json:"course" db:"course_id" bson:"course_id"`
	StudentID string    `json:"student" db:"student_id" bson:"student_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}
