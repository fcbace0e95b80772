package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tweetline/internal/apperror"
	"tweetline/internal/config"
	"tweetline/internal/identity"
	"tweetline/internal/mailer"
	"tweetline/internal/models"
	"tweetline/internal/repository"
	"tweetline/internal/storage"
)

const (
	passwordCost      = 10
	minPasswordLength = 6
	avatarNamespace   = "avatars"
)

type SignupRequest struct {
	Name     string
	Username string
	Email    string
	Password string
	Avatar   []byte
}

type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// Authenticate resolves a credential to the id of a user that still exists.
	Authenticate(ctx context.Context, token string) (string, error)
	// AuthenticateForDeletion also accepts users whose account deletion is unfinished,
	// so a failed deletion can be retried with the same credential.
	AuthenticateForDeletion(ctx context.Context, token string) (string, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// ForgotPassword mails a reset link rooted at baseURL and returns the address it was sent to.
	ForgotPassword(ctx context.Context, email, baseURL string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

type authService struct {
	userRepo repository.UserRepository
	storage  storage.Storage
	mailer   mailer.Mailer
	issuer   *identity.Issuer
	cfg      *config.Config
	cost     int
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, storage storage.Storage, mail mailer.Mailer, issuer *identity.Issuer, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		storage:  storage,
		mailer:   mail,
		issuer:   issuer,
		cfg:      cfg,
		cost:     passwordCost,
		now:      time.Now,
	}
}

func (s *authService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperror.Wrap(apperror.Upstream, err, "failed to hash password")
	}
	return string(hashed), nil
}

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return apperror.New(apperror.InvalidArgument, "Password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// taken reports whether lookup found a record, passing through anything but NotFound.
func taken(_ *models.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperror.Is(err, apperror.NotFound) {
		return false, nil
	}
	return false, err
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*models.User, string, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if req.Name == "" || req.Username == "" || req.Email == "" {
		return nil, "", apperror.New(apperror.InvalidArgument, "Name, username and email are required")
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return nil, "", err
	}

	exists, err := taken(s.userRepo.GetByEmail(ctx, req.Email))
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apperror.New(apperror.Conflict, "User already exists")
	}

	exists, err = taken(s.userRepo.GetByUsername(ctx, req.Username))
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", apperror.New(apperror.Conflict, "Username already exists")
	}

	passwordHash, err := s.hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	user := &models.User{
		UserID:       uuid.New().String(),
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Tweets:       []string{},
		Followers:    []string{},
		Followings:   []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if len(req.Avatar) > 0 {
		avatar, err := s.storage.Upload(ctx, avatarNamespace, req.Avatar)
		if err != nil {
			return nil, "", apperror.FromStore(err, "failed to upload avatar")
		}
		user.Avatar = avatar
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if user.Avatar != nil {
			if destroyErr := s.storage.Destroy(ctx, user.Avatar.PublicID); destroyErr != nil {
				log.Printf("signup: failed to clean up avatar %s: %v", user.Avatar.PublicID, destroyErr)
			}
		}
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.UserID)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.Upstream, err, "failed to issue token")
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return nil, "", apperror.New(apperror.Unauthenticated, "Invalid email or password")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperror.New(apperror.Unauthenticated, "Invalid email or password")
	}

	token, err := s.issuer.Issue(user.UserID)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.Upstream, err, "failed to issue token")
	}

	return user, token, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	return s.authenticate(ctx, token, s.userRepo.GetByID)
}

func (s *authService) AuthenticateForDeletion(ctx context.Context, token string) (string, error) {
	return s.authenticate(ctx, token, s.userRepo.GetIncludingDeleted)
}

func (s *authService) authenticate(ctx context.Context, token string, lookup func(context.Context, string) (*models.User, error)) (string, error) {
	if token == "" {
		return "", apperror.New(apperror.Unauthenticated, "Login to continue")
	}

	userID, err := s.issuer.Verify(token)
	if err != nil {
		return "", apperror.Wrap(apperror.Unauthenticated, err, "Login to continue")
	}

	if _, err := lookup(ctx, userID); err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return "", apperror.New(apperror.Unauthenticated, "Login to continue")
		}
		return "", err
	}

	return userID, nil
}

func (s *authService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.New(apperror.InvalidArgument, "Old password and new password are required")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperror.New(apperror.InvalidArgument, "Old password is incorrect")
	}

	passwordHash, err := s.hash(newPassword)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, userID, passwordHash)
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func (s *authService) ForgotPassword(ctx context.Context, email, baseURL string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", err
	}

	token, err := newResetToken()
	if err != nil {
		return "", apperror.Wrap(apperror.Upstream, err, "failed to generate reset token")
	}

	if err := s.userRepo.SetResetToken(ctx, user.UserID, digest(token), s.now().Add(s.cfg.ResetTokenTTL)); err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/reset/password/%s", strings.TrimSuffix(baseURL, "/"), token)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password Reset",
		Text:    "Reset your password by clicking the link below: \n\n " + link,
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		if clearErr := s.userRepo.SetResetToken(ctx, user.UserID, "", time.Time{}); clearErr != nil {
			log.Printf("forgot password: failed to clear reset token for %s: %v", user.UserID, clearErr)
		}
		return "", apperror.Wrap(apperror.Upstream, err, "failed to send reset email")
	}

	return user.Email, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPasswordLength(password); err != nil {
		return err
	}

	user, err := s.userRepo.GetByResetToken(ctx, digest(token), s.now())
	if err != nil {
		if apperror.Is(err, apperror.NotFound) {
			return apperror.New(apperror.NotFound, "Password reset token is invalid or has expired")
		}
		return err
	}

	passwordHash, err := s.hash(password)
	if err != nil {
		return err
	}

	return s.userRepo.UpdatePassword(ctx, user.UserID, passwordHash)
}
