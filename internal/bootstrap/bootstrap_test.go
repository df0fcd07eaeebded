package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/repositories/memory"
	"github.com/yigit/schoolhub/internal/config"
	"github.com/yigit/schoolhub/internal/pkg/session"
)

type capturingMailer struct {
	mu    sync.Mutex
	to    string
	body  string
	count int
}

func (m *capturingMailer) Send(_ context.Context, to, _, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to, m.body = to, htmlBody
	m.count++
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
	token   string
}

type testApp struct {
	handler http.Handler
	mailer  *capturingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://localhost:5173"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.ResetTokenExpiration = "15m"
	cfg.JWT.Issuer = "schoolhub"
	cfg.Session.CookieName = "schoolhub_session"
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}

	store := session.NewFilesystemStore(t.TempDir(), session.CookieOptions(time.Hour, false), []byte("0123456789abcdef0123456789abcdef"))
	mailer := &capturingMailer{}

	deps, err := BuildDependencies(cfg, memory.NewRepositories(), store, mailer, zerolog.Nop())
	if err != nil {
		t.Fatalf("BuildDependencies: %v", err)
	}
	router := SetupRouter(cfg, deps, zerolog.Nop())
	return &testApp{handler: NewHandler(cfg, router), mailer: mailer}
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, handler: a.handler}
}

func (c *client) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			c.t.Fatalf("%s %s: invalid JSON %q", method, path, rec.Body.String())
		}
	}
	return rec, env
}

func (c *client) expect(method, path string, body interface{}, status int) envelope {
	c.t.Helper()
	rec, env := c.do(method, path, body)
	if rec.Code != status {
		c.t.Fatalf("%s %s: status %d, want %d (body %s)", method, path, rec.Code, status, rec.Body.String())
	}
	return env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

type userView struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func register(t *testing.T, c *client, name, email, role string) userView {
	t.Helper()
	env := c.expect(http.MethodPost, "/register", map[string]string{
		"name": name, "email": email, "password": "secret1", "role": role,
	}, http.StatusCreated)
	var u userView
	decode(t, env.Data, &u)
	return u
}

// loginSession logs in keeping only the cookies, like a browser
func loginSession(t *testing.T, c *client, email, password string) {
	t.Helper()
	rec, env := c.do(http.MethodPost, "/login", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK || env.Message != "Login successful" {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	c.cookies = rec.Result().Cookies()
}

// loginToken logs in keeping only the bearer token, like an API client
func loginToken(t *testing.T, c *client, email, password string) {
	t.Helper()
	env := c.expect(http.MethodPost, "/login", map[string]string{"email": email, "password": password}, http.StatusOK)
	var data struct {
		Token string `json:"token"`
	}
	decode(t, env.Data, &data)
	if data.Token == "" {
		t.Fatal("login returned no token")
	}
	c.token = data.Token
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	u := register(t, c, "Tina", "tina@school.test", "teacher")
	if u.Role != "teacher" {
		t.Fatalf("role = %q", u.Role)
	}

	_, env := c.do(http.MethodPost, "/register", map[string]string{
		"name": "Tina", "email": "tina@school.test", "password": "x", "role": "teacher",
	})
	if env.Error.Message != "Email already registered" {
		t.Fatalf("duplicate register message = %q", env.Error.Message)
	}

	_, env = c.do(http.MethodPost, "/register", map[string]string{"email": "x@school.test"})
	if env.Error.Message != "Name, email, password, and role are required" {
		t.Fatalf("missing fields message = %q", env.Error.Message)
	}

	rec, env := c.do(http.MethodPost, "/login", map[string]string{"email": "tina@school.test", "password": "wrong"})
	if rec.Code != http.StatusBadRequest || env.Error.Message != "Invalid email or password" {
		t.Fatalf("bad login: %d %q", rec.Code, env.Error.Message)
	}

	loginSession(t, c, "tina@school.test", "secret1")
	env = c.expect(http.MethodGet, "/me", nil, http.StatusOK)
	var me userView
	decode(t, env.Data, &me)
	if me.ID != u.ID || me.Role != "teacher" {
		t.Fatalf("me = %+v, want %+v", me, u)
	}
}

func TestProtectedRoutesRequireCredentials(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	rec, env := c.do(http.MethodGet, "/users", nil)
	if rec.Code != http.StatusUnauthorized || env.Error.Message != "Authentication required" {
		t.Fatalf("got %d %q", rec.Code, env.Error.Message)
	}

	c.token = "not-a-jwt"
	rec, env = c.do(http.MethodGet, "/users", nil)
	if rec.Code != http.StatusUnauthorized || env.Error.Message != "Invalid or expired token" {
		t.Fatalf("got %d %q", rec.Code, env.Error.Message)
	}

	// course reads are public
	c.token = ""
	c.expect(http.MethodGet, "/courses", nil, http.StatusOK)
	c.expect(http.MethodGet, "/health", nil, http.StatusOK)
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	register(t, c, "Sam", "sam@school.test", "student")
	loginSession(t, c, "sam@school.test", "secret1")
	c.expect(http.MethodGet, "/me", nil, http.StatusOK)

	// only the session cookie, so the token cookie cannot authenticate on its own
	var sessionOnly []*http.Cookie
	for _, ck := range c.cookies {
		if ck.Name == "schoolhub_session" {
			sessionOnly = append(sessionOnly, ck)
		}
	}
	c.cookies = sessionOnly
	c.expect(http.MethodPost, "/logout", nil, http.StatusOK)
	c.expect(http.MethodGet, "/me", nil, http.StatusUnauthorized)
}

func TestCourseAndEnrollmentFlow(t *testing.T) {
	app := newTestApp(t)
	teacher := app.client(t)
	student := app.client(t)

	tv := register(t, teacher, "Tina", "tina@school.test", "teacher")
	sv := register(t, student, "Sam", "sam@school.test", "student")
	loginToken(t, teacher, "tina@school.test", "secret1")
	loginToken(t, student, "sam@school.test", "secret1")

	// students cannot create courses
	student.expect(http.MethodPost, "/courses", map[string]string{"name": "Algebra", "teacher": tv.ID}, http.StatusForbidden)

	_, env := teacher.do(http.MethodPost, "/courses", map[string]string{"name": "Algebra", "teacher": sv.ID})
	if env.Error.Message != "Teacher not found or invalid role" {
		t.Fatalf("invalid teacher message = %q", env.Error.Message)
	}

	env = teacher.expect(http.MethodPost, "/courses", map[string]string{"name": "Algebra", "teacher": tv.ID}, http.StatusCreated)
	var course struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &course)

	body := map[string]string{"course": course.ID, "student": sv.ID}
	student.expect(http.MethodPost, "/enrollments", body, http.StatusCreated)
	_, env = student.do(http.MethodPost, "/enrollments", body)
	if env.Error.Message != "Student already enrolled in this course" {
		t.Fatalf("duplicate enrollment message = %q", env.Error.Message)
	}

	env = student.expect(http.MethodGet, "/students/"+sv.ID+"/courses", nil, http.StatusOK)
	var mine struct {
		Courses []struct {
			ID string `json:"id"`
		} `json:"courses"`
	}
	decode(t, env.Data, &mine)
	if len(mine.Courses) != 1 || mine.Courses[0].ID != course.ID {
		t.Fatalf("student courses = %+v", mine.Courses)
	}

	// another student's view is off limits
	student.expect(http.MethodGet, "/students/"+tv.ID+"/courses", nil, http.StatusForbidden)

	env = teacher.expect(http.MethodGet, "/courses/"+course.ID+"/details", nil, http.StatusOK)
	var details struct {
		Teacher  userView   `json:"teacher"`
		Students []userView `json:"students"`
	}
	decode(t, env.Data, &details)
	if details.Teacher.ID != tv.ID || len(details.Students) != 1 || details.Students[0].ID != sv.ID {
		t.Fatalf("details = %+v", details)
	}

	teacher.expect(http.MethodDelete, "/courses/"+course.ID+"/students/"+sv.ID, nil, http.StatusOK)
	env = student.expect(http.MethodGet, "/students/"+sv.ID+"/available-courses", nil, http.StatusOK)
	var available []struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &available)
	if len(available) != 1 {
		t.Fatalf("available = %+v", available)
	}

	// a teacher who owns courses cannot delete their account
	_, env = teacher.do(http.MethodDelete, "/users/"+tv.ID, nil)
	if env.Error.Message != "User is assigned as teacher to existing courses" {
		t.Fatalf("delete teacher message = %q", env.Error.Message)
	}
	// and nobody can delete someone else
	student.expect(http.MethodDelete, "/users/"+tv.ID, nil, http.StatusForbidden)
}

func TestEnrollmentRequestFlow(t *testing.T) {
	app := newTestApp(t)
	teacher := app.client(t)
	student := app.client(t)

	tv := register(t, teacher, "Tina", "tina@school.test", "teacher")
	sv := register(t, student, "Sam", "sam@school.test", "student")
	loginToken(t, teacher, "tina@school.test", "secret1")
	loginToken(t, student, "sam@school.test", "secret1")

	env := teacher.expect(http.MethodPost, "/courses", map[string]string{"name": "Biology", "teacher": tv.ID}, http.StatusCreated)
	var course struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &course)

	env = student.expect(http.MethodPost, "/enrollment-requests", map[string]string{"course": course.ID}, http.StatusCreated)
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, env.Data, &req)
	if req.Status != "pending" {
		t.Fatalf("status = %q", req.Status)
	}
	_, env = student.do(http.MethodPost, "/enrollment-requests", map[string]string{"course": course.ID})
	if env.Error.Message != "Enrollment request already pending" {
		t.Fatalf("duplicate request message = %q", env.Error.Message)
	}

	env = teacher.expect(http.MethodGet, "/teachers/"+tv.ID+"/enrollment-requests", nil, http.StatusOK)
	var pending []struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &pending)
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("pending = %+v", pending)
	}

	student.expect(http.MethodPost, "/enrollment-requests/"+req.ID+"/decision", map[string]string{"decision": "approved"}, http.StatusForbidden)
	teacher.expect(http.MethodPost, "/enrollment-requests/"+req.ID+"/decision", map[string]string{"decision": "maybe"}, http.StatusBadRequest)
	teacher.expect(http.MethodPost, "/enrollment-requests/"+req.ID+"/decision", map[string]string{"decision": "approved"}, http.StatusOK)
	_, env = teacher.do(http.MethodPost, "/enrollment-requests/"+req.ID+"/decision", map[string]string{"decision": "rejected"})
	if env.Error.Message != "Request already decided" {
		t.Fatalf("second decision message = %q", env.Error.Message)
	}

	env = teacher.expect(http.MethodGet, "/courses/"+course.ID+"/students", nil, http.StatusOK)
	var roster []userView
	decode(t, env.Data, &roster)
	if len(roster) != 1 || roster[0].ID != sv.ID {
		t.Fatalf("roster = %+v", roster)
	}
}

var resetTokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_\-\.]+)`)

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)
	register(t, c, "Sam", "sam@school.test", "student")

	_, env := c.do(http.MethodPost, "/forgot-password", map[string]string{"email": "nobody@school.test"})
	if env.Error.Message != "No user with that email" {
		t.Fatalf("unknown email message = %q", env.Error.Message)
	}

	c.expect(http.MethodPost, "/forgot-password", map[string]string{"email": "sam@school.test"}, http.StatusOK)
	m := resetTokenPattern.FindStringSubmatch(app.mailer.body)
	if app.mailer.to != "sam@school.test" || m == nil {
		t.Fatalf("reset email not sent: to=%q", app.mailer.to)
	}

	reset := map[string]string{"token": m[1], "newPassword": "brandnew"}
	env = c.expect(http.MethodPost, "/reset-password", reset, http.StatusOK)
	if env.Message != "Password has been reset successfully" {
		t.Fatalf("reset message = %q", env.Message)
	}
	_, env = c.do(http.MethodPost, "/reset-password", reset)
	if env.Error.Message != "Invalid or expired token" {
		t.Fatalf("reused token message = %q", env.Error.Message)
	}

	loginToken(t, c, "sam@school.test", "brandnew")
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}
}

func TestCourseChangesRestrictedToOwner(t *testing.T) {
	app := newTestApp(t)
	owner := app.client(t)
	other := app.client(t)
	student := app.client(t)

	ov := register(t, owner, "Tina", "tina@school.test", "teacher")
	xv := register(t, other, "Otto", "otto@school.test", "teacher")
	sv := register(t, student, "Sam", "sam@school.test", "student")
	loginToken(t, owner, "tina@school.test", "secret1")
	loginToken(t, other, "otto@school.test", "secret1")

	env := owner.expect(http.MethodPost, "/courses", map[string]interface{}{
		"name": "Algebra", "teacher": ov.ID, "students": []string{sv.ID},
	}, http.StatusCreated)
	var course struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &course)
	path := "/courses/" + course.ID

	other.expect(http.MethodDelete, path+"/students/"+sv.ID, nil, http.StatusForbidden)
	_, env = other.do(http.MethodPut, path, map[string]interface{}{"students": []string{}})
	if env.Error.Message != "Only the course teacher can perform this action" {
		t.Fatalf("roster update by another teacher = %q", env.Error.Message)
	}
	other.expect(http.MethodPut, path, map[string]string{"teacher": xv.ID}, http.StatusForbidden)
	other.expect(http.MethodDelete, path, nil, http.StatusForbidden)

	env = owner.expect(http.MethodGet, path+"/details", nil, http.StatusOK)
	var details struct {
		Teacher  userView   `json:"teacher"`
		Students []userView `json:"students"`
	}
	decode(t, env.Data, &details)
	if details.Teacher.ID != ov.ID || len(details.Students) != 1 {
		t.Fatalf("course changed by another teacher: %+v", details)
	}

	owner.expect(http.MethodPut, path, map[string]interface{}{"students": []string{}}, http.StatusOK)
	owner.expect(http.MethodDelete, path, nil, http.StatusOK)
	owner.expect(http.MethodGet, path, nil, http.StatusNotFound)
}

func TestLoginIssuesFreshSession(t *testing.T) {
	app := newTestApp(t)
	intruder := app.client(t)
	victim := app.client(t)
	register(t, intruder, "Ivan", "ivan@school.test", "student")
	register(t, victim, "Tina", "tina@school.test", "teacher")

	loginSession(t, intruder, "ivan@school.test", "secret1")
	planted := sessionCookie(t, intruder.cookies)

	// the victim signs in while carrying the intruder's session cookie
	victim.cookies = []*http.Cookie{planted}
	loginSession(t, victim, "tina@school.test", "secret1")
	issued := sessionCookie(t, victim.cookies)
	if issued.Value == planted.Value {
		t.Fatal("login kept the session cookie the request arrived with")
	}

	intruder.cookies = []*http.Cookie{planted}
	intruder.expect(http.MethodGet, "/me", nil, http.StatusUnauthorized)

	victim.cookies = []*http.Cookie{issued}
	env := victim.expect(http.MethodGet, "/me", nil, http.StatusOK)
	var me userView
	decode(t, env.Data, &me)
	if me.Role != "teacher" {
		t.Fatalf("me = %+v", me)
	}
}

func sessionCookie(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, ck := range cookies {
		if ck.Name == "schoolhub_session" {
			return ck
		}
	}
	t.Fatal("no session cookie")
	return nil
}
