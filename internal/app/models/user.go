package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                   string     `json:"id" db:"id" bson:"_id" example:"7a0c5d6e-4a57-4bd5-9a4e-3f0f3e2c9b11"`
	Name                 string     `json:"name" db:"name" bson:"name" example:"Jane Doe"`
	Email                string     `json:"email" db:"email" bson:"email" example:"jane@school.test"`
	Password             string     `json:"-" db:"password" bson:"password"`
	Age                  *int       `json:"age,omitempty" db:"age" bson:"age,omitempty" example:"17"`
	Role                 Role       `json:"role" db:"role" bson:"role" example:"student"`
	ResetPasswordToken   *string    `json:"-" db:"reset_password_token" bson:"reset_password_token,omitempty"`
	ResetPasswordExpires *time.Time `json:"-" db:"reset_password_expires" bson:"reset_password_expires,omitempty"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// IsStudent reports whether the user holds the student role
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}

// IsTeacher reports whether the user holds the teacher role
func (u *User) IsTeacher() bool {
	return u != nil && u.Role == RoleTeacher
}
