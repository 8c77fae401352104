package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alpho052/career-guidance-platform/api"
	"github.com/Alpho052/career-guidance-platform/internal/config"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository/mock"
)

const testSecret = "testsecret"

type sentMail struct {
	email string
	code  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendVerification(ctx context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{email: email, code: code})
	return nil
}

type submission struct {
	typ     string
	payload any
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []submission
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, typ string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submission{typ: typ, payload: payload})
	return f.err
}

type testEnv struct {
	store     *mock.Store
	mailer    *fakeMailer
	submitter *fakeSubmitter
	handler   http.Handler
}

func newTestEnv(t *testing.T, env string) *testEnv {
	t.Helper()
	schemas, err := validation.NewRegistry()
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	cfg := &config.Config{
		Env:           env,
		JWTSecret:     testSecret,
		TokenDuration: time.Hour,
	}
	e := &testEnv{store: mock.NewStore(), mailer: &fakeMailer{}, submitter: &fakeSubmitter{}}
	e.handler = api.SetupRoutes(cfg, "1.2.3", "today", api.Deps{
		Store:     e.store,
		Schemas:   schemas,
		Mailer:    e.mailer,
		Submitter: e.submitter,
	})
	return e
}

// seedUser stores a verified active user with password "secret1" and its
// role record.
func (e *testEnv) seedUser(t *testing.T, role models.Role, email string) models.User {
	t.Helper()
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{
		Email:            email,
		Name:             "Test " + string(role),
		Role:             role,
		PasswordHash:     string(hash),
		IsVerified:       true,
		VerificationCode: "123456",
		Status:           models.UserActive,
	}
	if err := e.store.CreateUser(ctx, &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	switch role {
	case models.RoleStudent:
		err = e.store.CreateStudent(ctx, &models.Student{ID: u.ID, Email: email, Name: u.Name, Status: models.UserActive})
	case models.RoleInstitution:
		err = e.store.CreateInstitution(ctx, &models.Institution{ID: u.ID, Email: email, Name: u.Name, Status: models.OrgApproved})
	case models.RoleCompany:
		err = e.store.CreateCompany(ctx, &models.Company{ID: u.ID, Email: email, Name: u.Name, Status: models.OrgApproved})
	}
	if err != nil {
		t.Fatalf("create %s record: %v", role, err)
	}
	return u
}

func tokenFor(t *testing.T, u models.User, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId": u.ID,
		"role":   string(u.Role),
		"email":  u.Email,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// do sends a request through the router. A string body is sent verbatim,
// anything else is JSON encoded.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	out := map[string]any{}
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return res.StatusCode, out
}

func wantError(t *testing.T, body map[string]any, msg string) {
	t.Helper()
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if body["error"] != msg {
		t.Fatalf("error = %q, want %q", body["error"], msg)
	}
}

func wantMessage(t *testing.T, body map[string]any, msg string) {
	t.Helper()
	if body["success"] != true {
		t.Fatalf("success = %v, body %v", body["success"], body)
	}
	if body["message"] != msg {
		t.Fatalf("message = %q, want %q", body["message"], msg)
	}
}
