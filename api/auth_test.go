package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Alpho052/career-guidance-platform/pkg/models"
)

func TestRegister(t *testing.T) {
	valid := map[string]any{
		"email":    "alice@example.com",
		"password": "s3cret!",
		"name":     "Alice",
		"role":     "student",
	}

	tests := []struct {
		name       string
		env        string
		body       any
		prepare    func(t *testing.T, e *testEnv)
		wantStatus int
		check      func(t *testing.T, e *testEnv, body map[string]any)
	}{
		{
			name:       "InvalidJSON",
			body:       "not a json",
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				wantError(t, body, "Invalid JSON body")
			},
		},
		{
			name:       "MissingFields",
			body:       map[string]any{"email": "alice@example.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownRole",
			body:       map[string]any{"email": "alice@example.com", "password": "s3cret!", "name": "Alice", "role": "janitor"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ShortPassword",
			body:       map[string]any{"email": "alice@example.com", "password": "abc", "name": "Alice", "role": "student"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "DuplicateEmail",
			body: valid,
			prepare: func(t *testing.T, e *testEnv) {
				e.seedUser(t, models.RoleCompany, "ALICE@example.com")
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				wantError(t, body, "User already exists with this email")
			},
		},
		{
			name:       "Student",
			env:        "production",
			body:       valid,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				tok, _ := body["token"].(string)
				claims := jwt.MapClaims{}
				if _, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil }); err != nil {
					t.Fatalf("invalid token: %v", err)
				}
				if claims["role"] != "student" {
					t.Fatalf("role claim = %v", claims["role"])
				}
				if _, ok := body["verificationCode"]; ok {
					t.Fatalf("verification code must not be echoed in production")
				}
				if body["emailSent"] != true {
					t.Fatalf("emailSent = %v", body["emailSent"])
				}
				if len(e.mailer.sent) != 1 || e.mailer.sent[0].email != "alice@example.com" {
					t.Fatalf("mails sent = %+v", e.mailer.sent)
				}
				u, _ := e.store.GetUserByEmail(context.Background(), "alice@example.com")
				if u == nil || u.IsVerified || u.VerificationCode != e.mailer.sent[0].code {
					t.Fatalf("stored user = %+v", u)
				}
				s, _ := e.store.GetStudent(context.Background(), u.ID)
				if s == nil || s.Name != "Alice" {
					t.Fatalf("student record = %+v", s)
				}
			},
		},
		{
			name: "InstitutionWithAdditionalData",
			body: map[string]any{
				"email":          "uni@example.com",
				"password":       "s3cret!",
				"name":           "Uni",
				"role":           "institution",
				"additionalData": map[string]any{"location": "Maseru", "type": "university"},
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				u, _ := e.store.GetUserByEmail(context.Background(), "uni@example.com")
				inst, _ := e.store.GetInstitution(context.Background(), u.ID)
				if inst == nil || inst.Location != "Maseru" || inst.ContactEmail != "uni@example.com" || inst.Status != models.OrgApproved {
					t.Fatalf("institution = %+v", inst)
				}
			},
		},
		{
			name:       "DevelopmentEchoesCode",
			env:        "development",
			body:       valid,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				if body["verificationCode"] != e.mailer.sent[0].code {
					t.Fatalf("verificationCode = %v, mailed %q", body["verificationCode"], e.mailer.sent[0].code)
				}
			},
		},
		{
			name: "MailerFailureStillRegisters",
			body: valid,
			prepare: func(t *testing.T, e *testEnv) {
				e.mailer.err = errors.New("smtp down")
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				if body["emailSent"] != false {
					t.Fatalf("emailSent = %v", body["emailSent"])
				}
			},
		},
		{
			name: "RoleRecordFailureRollsBackUser",
			body: valid,
			prepare: func(t *testing.T, e *testEnv) {
				e.store.Fail("CreateStudent", errors.New("disk full"))
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, e *testEnv, body map[string]any) {
				wantError(t, body, "Internal server error")
				if u, _ := e.store.GetUserByEmail(context.Background(), "alice@example.com"); u != nil {
					t.Fatalf("user left behind: %+v", u)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if env == "" {
				env = "production"
			}
			e := newTestEnv(t, env)
			if tt.prepare != nil {
				tt.prepare(t, e)
			}
			status, body := e.do(t, http.MethodPost, "/v1/auth/register", "", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("want %d got %d: %v", tt.wantStatus, status, body)
			}
			if tt.check != nil {
				tt.check(t, e, body)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		prepare    func(t *testing.T, e *testEnv)
		wantStatus int
		wantError  string
	}{
		{
			name:       "MissingPassword",
			body:       map[string]any{"email": "bob@example.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownUser",
			body:       map[string]any{"email": "nobody@example.com", "password": "secret1"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid credentials",
		},
		{
			name:       "WrongPassword",
			body:       map[string]any{"email": "bob@example.com", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid credentials",
		},
		{
			name: "Suspended",
			body: map[string]any{"email": "bob@example.com", "password": "secret1"},
			prepare: func(t *testing.T, e *testEnv) {
				u, _ := e.store.GetUserByEmail(context.Background(), "bob@example.com")
				u.Status = models.UserSuspended
				_ = e.store.UpdateUser(context.Background(), u)
			},
			wantStatus: http.StatusForbidden,
			wantError:  "Account suspended. Please contact support.",
		},
		{
			name:       "Success",
			body:       map[string]any{"email": "Bob@Example.com", "password": "secret1"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, "production")
			e.seedUser(t, models.RoleCompany, "bob@example.com")
			if tt.prepare != nil {
				tt.prepare(t, e)
			}
			status, body := e.do(t, http.MethodPost, "/v1/auth/login", "", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("want %d got %d: %v", tt.wantStatus, status, body)
			}
			if tt.wantError != "" {
				wantError(t, body, tt.wantError)
			}
			if status == http.StatusOK {
				wantMessage(t, body, "Login successful")
				user, _ := body["user"].(map[string]any)
				if user["role"] != "company" {
					t.Fatalf("user = %v", user)
				}
				if _, leaked := user["passwordHash"]; leaked {
					t.Fatalf("password hash leaked")
				}
			}
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		verified   bool
		wantStatus int
		wantError  string
	}{
		{name: "MissingCode", body: map[string]any{"email": "v@example.com"}, wantStatus: http.StatusBadRequest, wantError: "Email and verification code are required"},
		{name: "UnknownUser", body: map[string]any{"email": "x@example.com", "code": "123456"}, wantStatus: http.StatusNotFound, wantError: "User not found"},
		{name: "AlreadyVerified", body: map[string]any{"email": "v@example.com", "code": "123456"}, verified: true, wantStatus: http.StatusBadRequest, wantError: "Email already verified"},
		{name: "WrongCode", body: map[string]any{"email": "v@example.com", "code": "000000"}, wantStatus: http.StatusBadRequest, wantError: "Invalid verification code"},
		{name: "StringCode", body: map[string]any{"email": "v@example.com", "code": "123456"}, wantStatus: http.StatusOK},
		{name: "NumericCode", body: map[string]any{"email": "v@example.com", "code": 123456}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, "production")
			u := e.seedUser(t, models.RoleStudent, "v@example.com")
			u.IsVerified = tt.verified
			if err := e.store.UpdateUser(context.Background(), &u); err != nil {
				t.Fatalf("update: %v", err)
			}

			status, body := e.do(t, http.MethodPost, "/v1/auth/verify-email", "", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("want %d got %d: %v", tt.wantStatus, status, body)
			}
			if tt.wantError != "" {
				wantError(t, body, tt.wantError)
				return
			}
			wantMessage(t, body, "Email verified successfully")
			stored, _ := e.store.GetUser(context.Background(), u.ID)
			if !stored.IsVerified || stored.VerificationCode != "" {
				t.Fatalf("stored user = %+v", stored)
			}
		})
	}
}

func TestAuthProfile(t *testing.T) {
	e := newTestEnv(t, "production")
	u := e.seedUser(t, models.RoleAdmin, "root@example.com")

	status, body := e.do(t, http.MethodGet, "/v1/auth/profile", tokenFor(t, u, time.Hour), nil)
	if status != http.StatusOK {
		t.Fatalf("want 200 got %d: %v", status, body)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "root@example.com" || user["role"] != "admin" {
		t.Fatalf("user = %v", user)
	}
}
