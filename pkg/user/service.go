package user

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"authservice/pkg/generator"
)

type ServiceInterface interface {
	Register(name, email, password string) (*User, error)
	Login(email, password string) (*User, error)
	GetByID(id string) (*User, error)
}

type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) Register(name, email, password string) (*User, error) {
	exist, err := s.Repo.FindByEmail(email)
	if exist != nil && err == nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("user lookup error: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	userID, err := generator.GenerateRandomID(24)
	if err != nil {
		return nil, fmt.Errorf("UserID gen error: %w", err)
	}

	user := &User{
		ID:       userID,
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := s.Repo.Create(user); err != nil {
		return nil, fmt.Errorf("user create error: %w", err)
	}

	return user, nil
}

func (s *Service) Login(email, password string) (*User, error) {
	user, err := s.Repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same kind as a wrong password so the response does not
			// reveal whether the account exists.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = time.Now().UTC()
	if err := s.Repo.UpdateLastLogin(user.ID, user.LastLogin); err != nil {
		return nil, fmt.Errorf("last login update error: %w", err)
	}

	return user, nil
}

func (s *Service) GetByID(id string) (*User, error) {
	return s.Repo.FindByID(id)
}
