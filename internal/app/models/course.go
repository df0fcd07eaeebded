package models

import "time"

// Course defines the course model based on the 'courses' table
type Course struct {
	ID          string    `json:"id" db:"id" bson:"_id"`
	Name        string    `json:"name" db:"name" bson:"name" example:"Algebra I"`
	Description string    `json:"description" db:"description" bson:"description" example:"Linear equations and inequalities"`
	TeacherID   string    `json:"teacher" db:"teacher_id" bson:"teacher_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}
