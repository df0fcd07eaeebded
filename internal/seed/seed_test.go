package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories/memory"
	"github.com/yigit/schoolhub/internal/pkg/auth"
)

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	teacher := DefaultTeacher{Name: "Ada", Email: " ada@school.test ", Password: "secret"}

	for i := 0; i < 2; i++ {
		if err := CreateDefaultData(ctx, repos, teacher, zerolog.Nop()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	users, err := repos.UserRepository.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
	u := users[0]
	if u.Role != models.RoleTeacher || u.Email != "ada@school.test" {
		t.Fatalf("unexpected seeded user %+v", u)
	}
	if !auth.CheckPassword(u.Password, "secret") {
		t.Fatal("seeded password does not verify")
	}
}

func TestCreateDefaultDataSkipsWithoutEmail(t *testing.T) {
	repos := memory.NewRepositories()
	if err := CreateDefaultData(context.Background(), repos, DefaultTeacher{}, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	users, _ := repos.UserRepository.List(context.Background())
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
}
