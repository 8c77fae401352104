package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	applog "github.com/Alpho052/career-guidance-platform/internal/logger"
	"github.com/Alpho052/career-guidance-platform/internal/mail"
	"github.com/Alpho052/career-guidance-platform/internal/validation"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

const bcryptCost = 10

type AuthHandler struct {
	store         repository.Store
	mailer        mail.Mailer
	binder        binder
	jwtSecret     string
	tokenDuration time.Duration
	// echoCode returns the verification code in the register response.
	echoCode bool
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(store repository.Store, mailer mail.Mailer, schemas *validation.Registry, jwtSecret string, tokenDuration time.Duration, echoCode bool) *AuthHandler {
	return &AuthHandler{
		store:         store,
		mailer:        mailer,
		binder:        binder{schemas: schemas},
		jwtSecret:     jwtSecret,
		tokenDuration: tokenDuration,
		echoCode:      echoCode,
	}
}

type registerRequest struct {
	Email          string         `json:"email"`
	Password       string         `json:"password"`
	Name           string         `json:"name"`
	Role           models.Role    `json:"role"`
	AdditionalData map[string]any `json:"additionalData"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  any    `json:"code"`
}

type userView struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       models.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
}

func viewOf(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, IsVerified: u.IsVerified}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.binder.bind(r, validation.Register, "", &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	ctx := r.Context()
	existing, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeError(w, r, internal("lookup user", err))
		return
	}
	if existing != nil {
		writeError(w, r, apperr.Conflict("User already exists with this email"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		writeError(w, r, internal("hash password", err))
		return
	}
	code, err := verificationCode()
	if err != nil {
		writeError(w, r, internal("verification code", err))
		return
	}

	user := models.User{
		Email:            req.Email,
		Name:             req.Name,
		Role:             req.Role,
		PasswordHash:     string(hash),
		VerificationCode: code,
		Status:           models.UserActive,
	}
	if err := h.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeError(w, r, apperr.Conflict("User already exists with this email"))
			return
		}
		writeError(w, r, internal("create user", err))
		return
	}

	if err := h.createRoleRecord(r, &user, req.AdditionalData); err != nil {
		if delErr := h.store.DeleteUser(ctx, user.ID); delErr != nil {
			logger.Warn("orphaned user after failed registration", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		writeError(w, r, internal("create "+string(user.Role)+" record", err))
		return
	}

	emailSent := true
	if err := h.mailer.SendVerification(ctx, user.Email, code); err != nil {
		emailSent = false
		logger.Warn("verification email not sent",
			zap.String("user_id", user.ID),
			zap.String("email", applog.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}

	token, err := h.issueToken(&user)
	if err != nil {
		writeError(w, r, internal("sign token", err))
		return
	}

	body := envelope{
		"success":   true,
		"message":   "User registered successfully. Please verify your email.",
		"token":     token,
		"user":      viewOf(&user),
		"emailSent": emailSent,
	}
	if h.echoCode {
		body["verificationCode"] = code
	}
	writeJSON(w, http.StatusCreated, body)
}

// createRoleRecord stores the profile record matching the user's role.
// Admins have none.
func (h *AuthHandler) createRoleRecord(r *http.Request, u *models.User, extra map[string]any) error {
	ctx := r.Context()
	switch u.Role {
	case models.RoleStudent:
		return h.store.CreateStudent(ctx, &models.Student{
			ID:     u.ID,
			Email:  u.Email,
			Name:   u.Name,
			Phone:  extraString(extra, "phone"),
			Status: models.UserActive,
		})
	case models.RoleInstitution:
		contact := extraString(extra, "contactEmail")
		if contact == "" {
			contact = u.Email
		}
		return h.store.CreateInstitution(ctx, &models.Institution{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Location:     extraString(extra, "location"),
			Type:         extraString(extra, "type"),
			ContactEmail: contact,
			Phone:        extraString(extra, "phone"),
			Description:  extraString(extra, "description"),
			Status:       models.OrgApproved,
		})
	case models.RoleCompany:
		return h.store.CreateCompany(ctx, &models.Company{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			Industry:    extraString(extra, "industry"),
			Location:    extraString(extra, "location"),
			Description: extraString(extra, "description"),
			Website:     extraString(extra, "website"),
			Status:      models.OrgApproved,
		})
	}
	return nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.binder.bind(r, validation.Login, "", &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, r, internal("lookup user", err))
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, r, apperr.Unauthenticated("Invalid credentials"))
		return
	}
	if user.Status == models.UserSuspended {
		writeError(w, r, apperr.Unauthorized("Account suspended. Please contact support."))
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, r, internal("sign token", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    viewOf(user),
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := h.binder.bind(r, validation.VerifyEmail, "Email and verification code are required", &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := h.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, r, internal("lookup user", err))
		return
	}
	if user == nil {
		writeError(w, r, apperr.NotFound("User not found"))
		return
	}
	if user.IsVerified {
		writeError(w, r, apperr.Conflict("Email already verified"))
		return
	}
	if user.VerificationCode == "" || codeString(req.Code) != user.VerificationCode {
		writeError(w, r, apperr.Validation("Invalid verification code"))
		return
	}

	user.IsVerified = true
	user.VerificationCode = ""
	if err := h.store.UpdateUser(ctx, user); err != nil {
		writeError(w, r, internal("verify user", err))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Email verified successfully",
		"user":    viewOf(user),
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	user, err := h.store.GetUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, internal("get user", err))
		return
	}
	if user == nil {
		writeError(w, r, apperr.NotFound("User not found"))
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "user": user})
}

func (h *AuthHandler) issueToken(u *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": u.ID,
		"role":   string(u.Role),
		"email":  u.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(h.tokenDuration).Unix(),
	})
	return token.SignedString([]byte(h.jwtSecret))
}

// verificationCode returns a random six digit code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// codeString accepts the code as a JSON string or number.
func codeString(v any) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func extraString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
