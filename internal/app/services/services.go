// Package services holds the request use cases. Each method runs the
// integrity rules for its write and then performs a single store mutation.
package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
)

// Not found reasons
const (
	MsgUserNotFound       = "User not found"
	MsgCourseNotFound     = "Course not found"
	MsgEnrollmentNotFound = "Enrollment not found"
	MsgStudentNotFound    = "Student not found"
	MsgTeacherNotFound    = "Teacher not found"
	MsgRequestNotFound    = "Enrollment request not found"
)

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

// notFound converts a repository miss into a 404 with msg
func notFound(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NewResourceNotFoundError(msg)
	}
	return err
}
