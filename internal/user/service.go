package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength    = 254
	minEmailLength    = 3
	minPasswordLength = 5
	bcryptCost        = 12
)

var (
	ErrInvalidEmail       = fmt.Errorf("email address is not valid")
	ErrEmailLength        = fmt.Errorf("email address is too long or too short, max length: %d, min length: %d", maxEmailLength, minEmailLength)
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrNoFieldsToUpdate   = errors.New("no fields provided to update")
	ErrInternalError      = errors.New("internal Server Error")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Service interface {
	Register(email, username, password string) (*User, error)
	GetUserByID(userID string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	UpdateProfile(userID string, email, password *string) (*User, error)
}

type service struct {
	repo Repository
}

func NewUserService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

func validateEmailAddress(email string) error {
	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return ErrEmailLength
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func (s *service) Register(email, username, password string) (*User, error) {
	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.repo.getUserByEmail(email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: %v", err)
	}

	newUser := &User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.repo.createUser(newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByEmail(email string) (*User, error) {
	return s.repo.getUserByEmail(email)
}

// UpdateProfile changes the user's email and/or password. At least one of the
// two must be provided.
func (s *service) UpdateProfile(userID string, email, password *string) (*User, error) {
	if email == nil && password == nil {
		return nil, ErrNoFieldsToUpdate
	}

	existingUser, err := s.repo.getUserByID(userID)
	if err != nil {
		return nil, err
	}

	if email != nil {
		if err := validateEmailAddress(*email); err != nil {
			return nil, err
		}
		existingUser.Email = *email
	}
	if password != nil {
		if len(*password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		passwordHash, err := hashPassword(*password)
		if err != nil {
			return nil, fmt.Errorf("could not hash password: %v", err)
		}
		existingUser.PasswordHash = passwordHash
	}

	if err := s.repo.updateUser(existingUser); err != nil {
		return nil, err
	}

	return existingUser, nil
}
