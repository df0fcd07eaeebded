// Package memory is a mutex guarded, process local implementation of the
// repositories. It backs the "memory" driver and the test suites.
package memory

import (
	"sort"
	"sync"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
)

type state struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	courses     map[string]*models.Course
	enrollments map[string]*models.Enrollment
	requests    map[string]*models.EnrollmentRequest
}

// NewRepositories returns repositories sharing one in-memory state
func NewRepositories() *repositories.Repositories {
	s := &state{
		users:       map[string]*models.User{},
		courses:     map[string]*models.Course{},
		enrollments: map[string]*models.Enrollment{},
		requests:    map[string]*models.EnrollmentRequest{},
	}
	return &repositories.Repositories{
		UserRepository:              &UserRepository{s: s},
		CourseRepository:            &CourseRepository{s: s},
		EnrollmentRepository:        &EnrollmentRepository{s: s},
		EnrollmentRequestRepository: &EnrollmentRequestRepository{s: s},
	}
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	if u.ResetPasswordToken != nil {
		tok := *u.ResetPasswordToken
		c.ResetPasswordToken = &tok
	}
	if u.ResetPasswordExpires != nil {
		exp := *u.ResetPasswordExpires
		c.ResetPasswordExpires = &exp
	}
	return &c
}

func sortUsers(users []*models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
}

func sortCourses(courses []*models.Course) {
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
}

func sortEnrollments(enrollments []*models.Enrollment) {
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].CreatedAt.Before(enrollments[j].CreatedAt) })
}
