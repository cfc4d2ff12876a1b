package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"PatientRegistry/config/jwt"
	"PatientRegistry/config/mail"
	"PatientRegistry/metrics"
	"PatientRegistry/models"
	"PatientRegistry/role"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenBytes = 20

type TokenIssuer interface {
	GenerateJWT(id string, r role.Role) (string, error)
	Validate(token string) (*jwt.Claims, error)
}

type AuthConfig struct {
	ClientURL           string
	ResetTokenTTL       time.Duration
	ConcealUnknownEmail bool
}

type AuthService struct {
	staff   StaffStore
	admins  AdminStore
	tokens  TokenIssuer
	mailer  mail.Sender
	metrics *metrics.Collector
	cfg     AuthConfig
	now     func() time.Time
}

func NewAuthService(staff StaffStore, admins AdminStore, tokens TokenIssuer, mailer mail.Sender, m *metrics.Collector, cfg AuthConfig) *AuthService {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 10 * time.Minute
	}
	return &AuthService{staff: staff, admins: admins, tokens: tokens, mailer: mailer, metrics: m, cfg: cfg, now: time.Now}
}

type StaffSession struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Status  models.StaffStatus `json:"status"`
}

type AdminProfile struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

type AdminSession struct {
	Token string       `json:"token"`
	Admin AdminProfile `json:"admin"`
}

// Principal is the caller a request was authorized for. Staff is set for staff callers.
type Principal struct {
	ID    primitive.ObjectID
	Role  role.Role
	Staff *models.Staff
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

/*
* Check every field is present and the password follows the rules
* Refuse a second account for the same email
* Hash the password and store the staff as pending
* Issue a session token, the status gate decides what it may open
 */
func (s *AuthService) RegisterStaff(ctx context.Context, name, email, password string) (*StaffSession, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, util.NewValidationError(util.PROVIDE_ALL_FIELDS)
	}
	if err := validatePasswordRules(password); err != nil {
		return nil, util.NewValidationError(err.Error())
	}

	_, err := s.staff.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, util.NewConflictError(util.STAFF_ALREADY_EXISTS)
	case !errors.Is(err, util.ErrRecordNotFound):
		zap.L().Error("lookup staff by email failed", zap.Error(err))
		return nil, util.NewInternalError("failed to register staff", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, util.NewInternalError("failed to hash password", err)
	}
	staff := &models.Staff{Name: name, Email: email, Password: hash, Status: models.StatusPending}
	if err := s.staff.Create(ctx, staff); err != nil {
		zap.L().Error("create staff failed", zap.Error(err))
		return nil, util.NewInternalError("failed to register staff", err)
	}

	token, err := s.tokens.GenerateJWT(staff.ID.Hex(), role.Staff)
	if err != nil {
		return nil, util.NewInternalError("failed to issue token", err)
	}
	zap.L().Info("staff registered", zap.String("staff_id", staff.ID.Hex()))
	return &StaffSession{
		Message: util.STAFF_REGISTERED,
		Token:   token,
		ID:      staff.ID,
		Name:    staff.Name,
		Email:   staff.Email,
		Status:  staff.Status,
	}, nil
}

/*
* Look the staff up by email and compare the password
* Unknown email and wrong password give the same answer
* Only approved staff get a token, everyone else learns their status
 */
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*StaffSession, error) {
	acc, err := s.authenticate(ctx, s.staff, email, password)
	if err != nil {
		s.metrics.Login(string(role.Staff), "rejected")
		return nil, err
	}
	if acc.Status != models.StatusApproved {
		s.metrics.Login(string(role.Staff), "forbidden")
		return nil, util.NewForbiddenError(util.ACCESS_DENIED, string(acc.Status))
	}

	token, err := s.tokens.GenerateJWT(acc.ID.Hex(), role.Staff)
	if err != nil {
		return nil, util.NewInternalError("failed to issue token", err)
	}
	s.metrics.Login(string(role.Staff), "ok")
	return &StaffSession{
		Message: util.LOGIN_SUCCESSFUL,
		Token:   token,
		ID:      acc.ID,
		Name:    acc.Name,
		Email:   acc.Email,
		Status:  acc.Status,
	}, nil
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*AdminSession, error) {
	acc, err := s.authenticate(ctx, s.admins, email, password)
	if err != nil {
		s.metrics.Login(string(role.Admin), "rejected")
		return nil, err
	}
	token, err := s.tokens.GenerateJWT(acc.ID.Hex(), role.Admin)
	if err != nil {
		return nil, util.NewInternalError("failed to issue token", err)
	}
	s.metrics.Login(string(role.Admin), "ok")
	return &AdminSession{
		Token: token,
		Admin: AdminProfile{ID: acc.ID, Name: acc.Name, Email: acc.Email},
	}, nil
}

func (s *AuthService) authenticate(ctx context.Context, store CredentialStore, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, util.NewValidationError(util.PROVIDE_ALL_FIELDS)
	}
	acc, err := store.FindByEmail(ctx, email)
	if errors.Is(err, util.ErrRecordNotFound) {
		burnPasswordCheck(password)
		return nil, util.NewAuthError(util.INVALID_CREDENTIALS)
	}
	if err != nil {
		zap.L().Error("lookup account by email failed", zap.Error(err))
		return nil, util.NewInternalError("login failed", err)
	}
	if err := verifyPassword(acc.Password, password); err != nil {
		return nil, util.NewAuthError(util.INVALID_CREDENTIALS)
	}
	return acc, nil
}

/*
* Verify signature and expiry, the role must match the route
* Staff are re-read on every request so a block takes effect at once
 */
func (s *AuthService) Authorize(ctx context.Context, token string, required role.Role) (*Principal, error) {
	if token == "" {
		return nil, util.NewUnauthorizedError(util.TOKEN_MISSING)
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, util.NewUnauthorizedError(util.TOKEN_INVALID)
	}
	if claims.Role != required {
		if required == role.Staff {
			return nil, util.NewForbiddenError(util.ACCESS_DENIED_NOT_STAFF, "")
		}
		return nil, util.NewForbiddenError(util.ACCESS_DENIED, "")
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, util.NewUnauthorizedError(util.TOKEN_INVALID)
	}

	p := &Principal{ID: id, Role: claims.Role}
	if required != role.Staff {
		return p, nil
	}

	staff, err := s.staff.FindByID(ctx, id)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, util.NewUnauthorizedError(util.TOKEN_INVALID)
	}
	if err != nil {
		zap.L().Error("load staff for authorization failed", zap.Error(err))
		return nil, util.NewInternalError("authorization failed", err)
	}
	if staff.Status != models.StatusApproved {
		return nil, util.NewForbiddenError(util.ACCESS_DENIED_STATUS+string(staff.Status), string(staff.Status))
	}
	p.Staff = staff
	return p, nil
}

/*
* Find the account for the role, unknown emails are a 404 unless concealed
* Generate a random token, keep only its sha256 with a short expiry
* Mail the link carrying the plain token
* If the mail fails the stored token is cleared again
 */
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, r role.Role) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", util.NewValidationError(util.PROVIDE_EMAIL)
	}
	store := s.credentials(r)

	acc, err := store.FindByEmail(ctx, email)
	if errors.Is(err, util.ErrRecordNotFound) {
		if s.cfg.ConcealUnknownEmail {
			return util.RESET_EMAIL_SENT, nil
		}
		return "", util.NewNotFoundError(r.Title() + util.ACCOUNT_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("lookup account for reset failed", zap.Error(err))
		return "", util.NewInternalError("password reset failed", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return "", util.NewInternalError("password reset failed", err)
	}
	expires := s.now().Add(s.cfg.ResetTokenTTL)
	if err := store.SetResetToken(ctx, acc.ID, hashResetToken(token), expires); err != nil {
		zap.L().Error("store reset token failed", zap.Error(err))
		return "", util.NewInternalError("password reset failed", err)
	}

	msg := mail.PasswordReset{
		To:        acc.Email,
		ResetURL:  fmt.Sprintf("%s/reset-password/%s/%s", s.cfg.ClientURL, r, token),
		Role:      string(r),
		ExpiresIn: s.cfg.ResetTokenTTL,
	}
	if err := s.mailer.SendPasswordReset(ctx, msg); err != nil {
		zap.L().Error("send reset email failed", zap.String("role", string(r)), zap.Error(err))
		if clearErr := store.ClearResetToken(ctx, acc.ID); clearErr != nil {
			zap.L().Error("clear reset token failed", zap.Error(clearErr))
		}
		s.metrics.ResetEmail("failed")
		return "", util.NewUpstreamError(util.EMAIL_NOT_SENT, err)
	}
	s.metrics.ResetEmail("sent")
	return util.RESET_EMAIL_SENT, nil
}

/*
* Both token and new password are required, the password follows the rules
* The stored hash is matched and consumed in a single conditional write
 */
func (s *AuthService) ResetPassword(ctx context.Context, token, password string, r role.Role) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return "", util.NewValidationError(util.PROVIDE_TOKEN_AND_PASSWORD)
	}
	if err := validatePasswordRules(password); err != nil {
		return "", util.NewValidationError(err.Error())
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", util.NewInternalError("failed to hash new password", err)
	}

	ok, err := s.credentials(r).ConsumeResetToken(ctx, hashResetToken(token), s.now(), hash)
	if err != nil {
		zap.L().Error("consume reset token failed", zap.Error(err))
		return "", util.NewInternalError("failed to update password", err)
	}
	if !ok {
		return "", util.NewInvalidTokenError(util.INVALID_OR_EXPIRED_TOKEN)
	}
	return util.PASSWORD_RESET_SUCCESSFUL, nil
}

// SeedAdmin creates the admin account unless one with that email exists.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return false, util.NewValidationError("ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if err := validatePasswordRules(password); err != nil {
		return false, util.NewValidationError(err.Error())
	}

	_, err := s.admins.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, util.ErrRecordNotFound) {
		return false, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := s.admins.Create(ctx, &models.Admin{Name: name, Email: email, Password: hash, Role: string(role.Admin)}); err != nil {
		return false, err
	}
	return true, nil
}

// SweepExpiredResetTokens nulls token fields whose expiry has passed in both collections.
func (s *AuthService) SweepExpiredResetTokens(ctx context.Context) (int64, error) {
	now := s.now()
	var total int64
	for _, store := range []CredentialStore{s.admins, s.staff} {
		n, err := store.ClearExpiredResetTokens(ctx, now)
		if err != nil {
			return total, err
		}
		total += n
	}
	s.metrics.TokensSwept(total)
	return total, nil
}

func (s *AuthService) credentials(r role.Role) CredentialStore {
	if r == role.Admin {
		return s.admins
	}
	return s.staff
}

func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func verifyPassword(dbPassword string, inputPassword string) error {
	if strings.TrimSpace(dbPassword) == "" {
		return errors.New("stored password missing or invalid")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(dbPassword), []byte(inputPassword)); err != nil {
		return errors.New("password mismatch")
	}
	return nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck spends one bcrypt comparison so unknown emails take as
// long to reject as wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

/*
* At least 7 characters
* Must have an uppercase letter, a number and a special character
 */
func validatePasswordRules(password string) error {
	if len(password) < 7 {
		return errors.New("password must be at least 7 characters long")
	}
	const specialChars = "!@#$%^&*()-_=+[]{}|;:',.<>?/`~\"\\"

	var hasUpper, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= '0' && ch <= '9':
			hasNumber = true
		case strings.ContainsRune(specialChars, ch):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return errors.New("password must contain at least one uppercase letter")
	case !hasNumber:
		return errors.New("password must contain at least one number")
	case !hasSpecial:
		return errors.New("password must contain at least one special character")
	}
	return nil
}
