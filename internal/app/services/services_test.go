package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/app/repositories/memory"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolhub/internal/pkg/auth"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type testEnv struct {
	repos       *repositories.Repositories
	mailer      *fakeMailer
	auth        *AuthService
	users       *UserService
	courses     *CourseService
	enrollments *EnrollmentService
	requests    *EnrollmentRequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := memory.NewRepositories()
	rules := integrity.NewRules(repos)
	authz := auth.NewAuthorizationService(repos.CourseRepository)
	jwt := pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:      "services-test",
		AccessTokenExp: time.Hour,
		ResetTokenExp:  15 * time.Minute,
	})
	log := zerolog.Nop()
	mailer := &fakeMailer{}
	enrollments := NewEnrollmentService(repos.EnrollmentRepository, rules, log)

	return &testEnv{
		repos:       repos,
		mailer:      mailer,
		auth:        NewAuthService(repos.UserRepository, rules, jwt, mailer, "http://app.test/", 15*time.Minute, log),
		users:       NewUserService(repos, rules, log),
		courses:     NewCourseService(repos, rules, authz, log),
		enrollments: enrollments,
		requests:    NewEnrollmentRequestService(repos, rules, authz, enrollments, log),
	}
}

func (e *testEnv) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), &dto.RegisterRequest{
		Name:     name,
		Email:    strings.ToLower(name) + "@school.test",
		Password: "Secret1!",
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (e *testEnv) course(t *testing.T, name string, teacher *models.User, students ...string) *models.Course {
	t.Helper()
	c, err := e.courses.Create(context.Background(), &dto.CreateCourseRequest{Name: name, Teacher: teacher.ID, Students: students})
	if err != nil {
		t.Fatalf("create course %s: %v", name, err)
	}
	return c
}

func expectError(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	if got := apperrors.MessageOf(err, ""); got != msg {
		t.Fatalf("expected %q, got %q", msg, got)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	age := 20

	req := &dto.RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "Secret1!", Role: "student", Age: &age}
	registered, err := env.auth.Register(ctx, req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Password == "Secret1!" {
		t.Fatal("password stored in plain text")
	}

	_, err = env.auth.Register(ctx, req)
	expectError(t, err, apperrors.ErrConflict, MsgEmailRegistered)

	user, token, _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Role != models.RoleStudent || token == "" {
		t.Fatalf("unexpected login result %+v %q", user, token)
	}

	_, _, _, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	expectError(t, err, apperrors.ErrInvalidCredentials, MsgInvalidLogin)
	_, _, _, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@x.com", Password: "Secret1!"})
	expectError(t, err, apperrors.ErrInvalidCredentials, MsgInvalidLogin)
}

func TestRegisterRequiresFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(context.Background(), &dto.RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "p"})
	expectError(t, err, apperrors.ErrValidationFailed, MsgRegisterFieldsRequired)

	users, _ := env.repos.UserRepository.List(context.Background())
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	err := env.auth.ForgotPassword(context.Background(), "ghost@x.com")
	expectError(t, err, apperrors.ErrBadRequest, MsgNoUserWithEmail)
	if len(env.mailer.sent) != 0 {
		t.Fatal("email sent for unknown user")
	}
}

func TestResetTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.user(t, "Ann", models.RoleStudent)

	if err := env.auth.ForgotPassword(ctx, ann.Email); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].to != ann.Email {
		t.Fatalf("unexpected mails %+v", env.mailer.sent)
	}
	if !strings.Contains(env.mailer.sent[0].body, "http://app.test/reset-password?token=") {
		t.Fatalf("reset link missing: %s", env.mailer.sent[0].body)
	}

	stored, _ := env.repos.UserRepository.GetByID(ctx, ann.ID)
	if stored.ResetPasswordToken == nil {
		t.Fatal("reset token not stored")
	}
	token := *stored.ResetPasswordToken

	if err := env.auth.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "NewSecret2!"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: ann.Email, Password: "NewSecret2!"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	err := env.auth.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "Another3!"})
	expectError(t, err, apperrors.ErrBadRequest, MsgInvalidResetToken)

	err = env.auth.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token})
	expectError(t, err, apperrors.ErrValidationFailed, MsgResetFieldsRequired)
}

func TestCourseWithInvalidTeacher(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.user(t, "Sam", models.RoleStudent)

	for _, teacherID := range []string{student.ID, "missing"} {
		_, err := env.courses.Create(ctx, &dto.CreateCourseRequest{Name: "Math", Teacher: teacherID})
		expectError(t, err, apperrors.ErrInvalidReference, integrity.MsgTeacherInvalid)
	}

	courses, _ := env.courses.List(ctx)
	if len(courses) != 0 {
		t.Fatalf("expected no courses, got %d", len(courses))
	}
}

func TestCourseRosterFromStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.user(t, "Tess", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	bob := env.user(t, "Bob", models.RoleStudent)

	_, err := env.courses.Create(ctx, &dto.CreateCourseRequest{Name: "Math", Teacher: teacher.ID, Students: []string{ann.ID, teacher.ID}})
	expectError(t, err, apperrors.ErrInvalidReference, integrity.MsgStudentsInvalid)

	course := env.course(t, "Math", teacher, ann.ID, ann.ID)
	details, err := env.courses.Details(ctx, course.ID)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if details.Teacher.ID != teacher.ID || len(details.Students) != 1 || details.Students[0].ID != ann.ID {
		t.Fatalf("unexpected details %+v", details)
	}

	roster := []string{bob.ID}
	if _, err := env.courses.Update(ctx, course.ID, teacher.ID, &dto.UpdateCourseRequest{Students: &roster}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	students, _ := env.courses.Roster(ctx, course.ID)
	if len(students) != 1 || students[0].ID != bob.ID {
		t.Fatalf("roster not replaced: %+v", students)
	}

	available, _ := env.courses.AvailableCourses(ctx, ann.ID)
	if len(available) != 1 || available[0].ID != course.ID {
		t.Fatalf("expected course to be available to ann, got %+v", available)
	}
	mine, _ := env.courses.StudentCourses(ctx, bob.ID)
	if len(mine.Courses) != 1 || mine.Courses[0].ID != course.ID {
		t.Fatalf("unexpected student courses %+v", mine)
	}
}

func TestDuplicateEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.user(t, "Tess", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	course := env.course(t, "Math", teacher)

	req := &dto.CreateEnrollmentRequest{Course: course.ID, Student: ann.ID}
	if _, err := env.enrollments.Create(ctx, req); err != nil {
		t.Fatalf("first enrollment: %v", err)
	}
	_, err := env.enrollments.Create(ctx, req)
	expectError(t, err, apperrors.ErrConflict, integrity.MsgAlreadyEnrolled)

	all, _ := env.enrollments.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one enrollment, got %d", len(all))
	}

	_, err = env.enrollments.Create(ctx, &dto.CreateEnrollmentRequest{Course: course.ID})
	expectError(t, err, apperrors.ErrValidationFailed, MsgEnrollmentFieldsRequired)
	_, err = env.enrollments.Create(ctx, &dto.CreateEnrollmentRequest{Course: "nope", Student: ann.ID})
	expectError(t, err, apperrors.ErrInvalidReference, integrity.MsgCourseMissing)
	_, err = env.enrollments.Create(ctx, &dto.CreateEnrollmentRequest{Course: course.ID, Student: teacher.ID})
	expectError(t, err, apperrors.ErrInvalidReference, integrity.MsgStudentMissing)
}

func TestUpdateEnrollmentKeepsPairUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.user(t, "Tess", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	math := env.course(t, "Math", teacher)
	art := env.course(t, "Art", teacher)

	first, _ := env.enrollments.Create(ctx, &dto.CreateEnrollmentRequest{Course: math.ID, Student: ann.ID})
	if _, err := env.enrollments.Create(ctx, &dto.CreateEnrollmentRequest{Course: art.ID, Student: ann.ID}); err != nil {
		t.Fatal(err)
	}

	_, err := env.enrollments.Update(ctx, first.ID, &dto.UpdateEnrollmentRequest{Course: &art.ID})
	expectError(t, err, apperrors.ErrConflict, integrity.MsgAlreadyEnrolled)

	_, err = env.enrollments.Update(ctx, "missing", &dto.UpdateEnrollmentRequest{Course: &art.ID})
	expectError(t, err, apperrors.ErrResourceNotFound, MsgEnrollmentNotFound)
}

func TestUserDeletionPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.user(t, "Tess", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	course := env.course(t, "Math", teacher, ann.ID)

	expectError(t, env.users.Delete(ctx, teacher.ID), apperrors.ErrConflict, integrity.MsgTeacherOwnsCourses)

	if err := env.users.Delete(ctx, ann.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	roster, _ := env.courses.Roster(ctx, course.ID)
	if len(roster) != 0 {
		t.Fatalf("enrollments of deleted student remain: %+v", roster)
	}

	if err := env.courses.Delete(ctx, course.ID, teacher.ID); err != nil {
		t.Fatalf("delete course: %v", err)
	}
	if err := env.users.Delete(ctx, teacher.ID); err != nil {
		t.Fatalf("delete teacher without courses: %v", err)
	}
	expectError(t, env.users.Delete(ctx, teacher.ID), apperrors.ErrResourceNotFound, MsgUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.user(t, "Ann", models.RoleStudent)
	bob := env.user(t, "Bob", models.RoleStudent)

	_, err := env.users.Update(ctx, ann.ID, &dto.UpdateUserRequest{Email: &bob.Email})
	expectError(t, err, apperrors.ErrConflict, integrity.MsgEmailTaken)

	name := "Annie"
	age := 21
	updated, err := env.users.Update(ctx, ann.ID, &dto.UpdateUserRequest{Name: &name, Age: &age, Email: &ann.Email})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Annie" || *updated.Age != 21 || updated.Password != ann.Password {
		t.Fatalf("unexpected update result %+v", updated)
	}

	_, err = env.users.Update(ctx, "missing", &dto.UpdateUserRequest{Name: &name})
	expectError(t, err, apperrors.ErrResourceNotFound, MsgUserNotFound)
}

func TestEnrollmentRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Tess", models.RoleTeacher)
	other := env.user(t, "Otto", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	course := env.course(t, "Math", owner)

	req, err := env.requests.Submit(ctx, ann.ID, course.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.Status != models.RequestPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	_, err = env.requests.Submit(ctx, ann.ID, course.ID)
	expectError(t, err, apperrors.ErrConflict, MsgRequestPending)

	pending, _ := env.requests.PendingForTeacher(ctx, owner.ID)
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("unexpected pending list %+v", pending)
	}
	none, _ := env.requests.PendingForTeacher(ctx, other.ID)
	if len(none) != 0 {
		t.Fatalf("other teacher sees requests: %+v", none)
	}

	_, err = env.requests.Decide(ctx, req.ID, other.ID, models.RequestApproved)
	expectError(t, err, apperrors.ErrPermissionDenied, auth.MsgNotOwner)

	decided, err := env.requests.Decide(ctx, req.ID, owner.ID, models.RequestApproved)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != models.RequestApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	if _, err := env.repos.EnrollmentRepository.GetByPair(ctx, course.ID, ann.ID); err != nil {
		t.Fatalf("approval did not enroll: %v", err)
	}

	_, err = env.requests.Decide(ctx, req.ID, owner.ID, models.RequestRejected)
	expectError(t, err, apperrors.ErrConflict, MsgRequestDecided)

	_, err = env.requests.Submit(ctx, ann.ID, course.ID)
	expectError(t, err, apperrors.ErrConflict, integrity.MsgAlreadyEnrolled)

	mine, _ := env.requests.List(ctx, ann.ID)
	if len(mine) != 1 {
		t.Fatalf("expected one request for ann, got %d", len(mine))
	}
}

func TestRemoveStudentRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Tess", models.RoleTeacher)
	other := env.user(t, "Otto", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	course := env.course(t, "Math", owner, ann.ID)

	expectError(t, env.courses.RemoveStudent(ctx, course.ID, ann.ID, other.ID), apperrors.ErrPermissionDenied, auth.MsgNotOwner)
	if err := env.courses.RemoveStudent(ctx, course.ID, ann.ID, owner.ID); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}
	expectError(t, env.courses.RemoveStudent(ctx, course.ID, ann.ID, owner.ID), apperrors.ErrResourceNotFound, MsgEnrollmentNotFound)
}

func TestCourseChangesRequireOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "Tess", models.RoleTeacher)
	other := env.user(t, "Otto", models.RoleTeacher)
	ann := env.user(t, "Ann", models.RoleStudent)
	course := env.course(t, "Math", owner, ann.ID)

	empty := []string{}
	_, err := env.courses.Update(ctx, course.ID, other.ID, &dto.UpdateCourseRequest{Students: &empty})
	expectError(t, err, apperrors.ErrPermissionDenied, auth.MsgNotOwner)
	_, err = env.courses.Update(ctx, course.ID, other.ID, &dto.UpdateCourseRequest{Teacher: &other.ID})
	expectError(t, err, apperrors.ErrPermissionDenied, auth.MsgNotOwner)
	expectError(t, env.courses.Delete(ctx, course.ID, other.ID), apperrors.ErrPermissionDenied, auth.MsgNotOwner)

	kept, err := env.courses.Get(ctx, course.ID)
	if err != nil || kept.TeacherID != owner.ID {
		t.Fatalf("course changed by another teacher: %+v, %v", kept, err)
	}
	roster, _ := env.courses.Roster(ctx, course.ID)
	if len(roster) != 1 || roster[0].ID != ann.ID {
		t.Fatalf("roster changed by another teacher: %+v", roster)
	}

	_, err = env.courses.Update(ctx, "missing", owner.ID, &dto.UpdateCourseRequest{Students: &empty})
	expectError(t, err, apperrors.ErrResourceNotFound, MsgCourseNotFound)
	expectError(t, env.courses.Delete(ctx, "missing", owner.ID), apperrors.ErrResourceNotFound, MsgCourseNotFound)
}
