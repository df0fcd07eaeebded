package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
)

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	users := repos.UserRepository

	now := time.Now()
	if err := users.Create(ctx, &models.User{ID: "u1", Email: "a@x.test", Role: models.RoleStudent, CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := users.Create(ctx, &models.User{ID: "u2", Email: "a@x.test", Role: models.RoleTeacher, CreatedAt: now})
	if !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := users.Create(ctx, &models.User{ID: "u3", Email: "b@x.test", Role: models.RoleStudent, CreatedAt: now}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err = users.Update(ctx, &models.User{ID: "u3", Email: "a@x.test", Role: models.RoleStudent})
	if !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
	// updating a record with its own email is fine
	if err := users.Update(ctx, &models.User{ID: "u3", Name: "B", Email: "b@x.test", Role: models.RoleStudent}); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestUserReturnsCopies(t *testing.T) {
	ctx := context.Background()
	users := NewRepositories().UserRepository
	age := 12
	if err := users.Create(ctx, &models.User{ID: "u1", Email: "a@x.test", Age: &age}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := users.GetByID(ctx, "u1")
	*got.Age = 99
	again, _ := users.GetByID(ctx, "u1")
	if *again.Age != 12 {
		t.Fatalf("stored age mutated through returned pointer: %d", *again.Age)
	}
}

func TestResetTokenSurvivesProfileUpdate(t *testing.T) {
	ctx := context.Background()
	users := NewRepositories().UserRepository
	_ = users.Create(ctx, &models.User{ID: "u1", Email: "a@x.test"})
	exp := time.Now().Add(time.Minute)
	if err := users.SetResetToken(ctx, "u1", "tok", exp); err != nil {
		t.Fatalf("set token: %v", err)
	}
	_ = users.Update(ctx, &models.User{ID: "u1", Email: "a@x.test", Name: "renamed"})
	u, _ := users.GetByID(ctx, "u1")
	if u.ResetPasswordToken == nil || *u.ResetPasswordToken != "tok" {
		t.Fatal("reset token lost on update")
	}
	if err := users.ClearResetToken(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	u, _ = users.GetByID(ctx, "u1")
	if u.ResetPasswordToken != nil || u.ResetPasswordExpires != nil {
		t.Fatal("reset token not cleared")
	}
}

func TestEnrollmentPairIsUnique(t *testing.T) {
	ctx := context.Background()
	ledger := NewRepositories().EnrollmentRepository
	if err := ledger.Create(ctx, &models.Enrollment{ID: "e1", CourseID: "c1", StudentID: "s1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := ledger.Create(ctx, &models.Enrollment{ID: "e2", CourseID: "c1", StudentID: "s1"})
	if !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	all, _ := ledger.List(ctx)
	if len(all) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(all))
	}
}

func TestReplaceRoster(t *testing.T) {
	ctx := context.Background()
	ledger := NewRepositories().EnrollmentRepository
	_ = ledger.Create(ctx, &models.Enrollment{ID: "keep", CourseID: "c1", StudentID: "s1"})
	_ = ledger.Create(ctx, &models.Enrollment{ID: "drop", CourseID: "c1", StudentID: "s2"})
	_ = ledger.Create(ctx, &models.Enrollment{ID: "other", CourseID: "c2", StudentID: "s2"})

	if err := ledger.ReplaceRoster(ctx, "c1", []string{"s1", "s3", "s3"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	roster, _ := ledger.ListByCourse(ctx, "c1")
	got := map[string]string{}
	for _, e := range roster {
		got[e.StudentID] = e.ID
	}
	if len(got) != 2 || got["s1"] != "keep" || got["s3"] == "" {
		t.Fatalf("unexpected roster %v", got)
	}
	if _, err := ledger.GetByID(ctx, "other"); err != nil {
		t.Fatalf("other course touched: %v", err)
	}

	if err := ledger.ReplaceRoster(ctx, "c1", nil); err != nil {
		t.Fatalf("clear roster: %v", err)
	}
	roster, _ = ledger.ListByCourse(ctx, "c1")
	if len(roster) != 0 {
		t.Fatalf("roster not cleared: %d rows", len(roster))
	}
}

func TestRequestFilterAndPendingUniqueness(t *testing.T) {
	ctx := context.Background()
	requests := NewRepositories().EnrollmentRequestRepository
	now := time.Now()
	_ = requests.Create(ctx, &models.EnrollmentRequest{ID: "r1", CourseID: "c1", StudentID: "s1", Status: models.RequestPending, CreatedAt: now})
	_ = requests.Create(ctx, &models.EnrollmentRequest{ID: "r2", CourseID: "c2", StudentID: "s1", Status: models.RequestPending, CreatedAt: now.Add(time.Second)})

	err := requests.Create(ctx, &models.EnrollmentRequest{ID: "r3", CourseID: "c1", StudentID: "s1", Status: models.RequestPending})
	if !errors.Is(err, repositories.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second pending request, got %v", err)
	}

	list, _ := requests.List(ctx, repositories.RequestFilter{StudentID: "s1"})
	if len(list) != 2 || list[0].ID != "r2" {
		t.Fatalf("expected newest first, got %+v", list)
	}

	list, _ = requests.List(ctx, repositories.RequestFilter{CourseIDs: []string{}})
	if len(list) != 0 {
		t.Fatalf("empty course set should match nothing, got %d", len(list))
	}

	if err := requests.UpdateStatus(ctx, "r1", models.RequestApproved); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if _, err := requests.FindPending(ctx, "c1", "s1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("decided request still pending: %v", err)
	}
}
