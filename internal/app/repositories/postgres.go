package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolhub/internal/db"
)

// NewPostgresRepositories wires the pgx backed repositories
func NewPostgresRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:              NewUserRepository(database),
		CourseRepository:            NewCourseRepository(database),
		EnrollmentRepository:        NewEnrollmentRepository(database),
		EnrollmentRequestRepository: NewEnrollmentRequestRepository(database),
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
