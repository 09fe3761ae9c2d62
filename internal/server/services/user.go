// Package services contains the business logic behind the web handlers.
// This file implements UserService: registration, login and session lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/auth"
	"github.com/dmitrijs2005/formkeeper/internal/server/config"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/repomanager"
)

const (
	minUserNameLen = 3
	maxUserNameLen = 50
	minPasswordLen = 4
	maxPasswordLen = 72 // bcrypt input limit
)

// Session is what a successful login yields: the signed token for the
// cookie and the user it belongs to.
type Session struct {
	Token   string
	User    *models.User
	Expires time.Time
}

// UserService provides authentication-related operations:
// - Register: create users with a bcrypt password hash
// - Login: verify credentials and mint a session token
// - Authenticate / Profile: resolve a session token back to its user
type UserService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	jwtSecret               []byte
	sessionValidityDuration time.Duration

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                      db,
		repomanager:             m,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

// Register validates the credentials and creates a new user.
// Duplicate names yield common.ErrorAlreadyExists, bad input a
// *common.ValidationError.
func (s *UserService) Register(ctx context.Context, userName string, password []byte) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByLogin(ctx, userName)
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a new Session.
// Unknown users and wrong passwords both yield common.ErrorUnauthorized;
// unknown users still pay for one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, userName string, password []byte) (*Session, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || len(password) == 0 {
		return nil, common.NewValidationError("Usuario y contraseña son obligatorios")
	}
	if !utf8.ValidString(userName) {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = auth.CheckPassword(s.getDummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: searching user: %v", common.ErrorInternal, err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: checking password: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.UserName, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: issuing token: %v", common.ErrorInternal, err)
	}

	return &Session{
		Token:   token,
		User:    user,
		Expires: time.Now().Add(s.sessionValidityDuration),
	}, nil
}

// Authenticate checks a session token and returns its claims.
func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// Profile loads the user a session belongs to. A user deleted after the
// token was issued yields common.ErrorUnauthorized.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return user, nil
}

func (s *UserService) getDummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword([]byte("formkeeper-dummy-password"))
	})
	return s.dummyHash
}

func validateCredentials(userName string, password []byte) error {
	if !utf8.ValidString(userName) {
		return common.NewValidationError("El usuario debe estar codificado en UTF-8")
	}

	n := utf8.RuneCountInString(userName)
	switch {
	case n == 0:
		return common.NewValidationError("El usuario es obligatorio")
	case n < minUserNameLen || n > maxUserNameLen:
		return common.NewValidationError(fmt.Sprintf("El usuario debe tener entre %d y %d caracteres", minUserNameLen, maxUserNameLen))
	case strings.IndexFunc(userName, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return common.NewValidationError("El usuario no puede contener espacios")
	case len(password) == 0:
		return common.NewValidationError("La contraseña es obligatoria")
	case len(password) < minPasswordLen || len(password) > maxPasswordLen:
		return common.NewValidationError(fmt.Sprintf("La contraseña debe tener entre %d y %d caracteres", minPasswordLen, maxPasswordLen))
	}
	return nil
}
