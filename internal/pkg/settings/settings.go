// Package settings implements profile, password and data-reset actions of
// the signed-in account.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

// ResetConfirmation must be typed to reset the account's operational data.
const ResetConfirmation = "DELETE"

var (
	ErrIncorrectPassword    = errors.New("incorrect current password")
	ErrConfirmationMismatch = errors.New("type DELETE to confirm")
	ErrEmptyPassword        = errors.New("new password is required")
	ErrPasswordTooLong      = fmt.Errorf("new password must be at most %d bytes", models.MaxPasswordBytes)
)

type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type PasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type Service struct {
	store repository.RecordStore
}

func NewService(store repository.RecordStore) *Service {
	return &Service{store: store}
}

// UpdateProfile rewrites name and phone. Blank fields keep their value.
func (s *Service) UpdateProfile(ctx context.Context, email string, in ProfileInput) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		account.Name = name
	}
	if phone := models.NormalizePhone(in.Phone); phone != "" {
		account.Phone = phone
	}
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) ChangePassword(ctx context.Context, email string, in PasswordInput) error {
	account, err := s.store.GetAccount(ctx, email)
	if err != nil {
		return err
	}
	if !account.CheckPassword(in.CurrentPassword) {
		return ErrIncorrectPassword
	}
	if in.NewPassword == "" {
		return ErrEmptyPassword
	}
	if !models.ValidPasswordLength(in.NewPassword) {
		return ErrPasswordTooLong
	}
	if err := account.SetPassword(in.NewPassword); err != nil {
		return err
	}
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return err
	}
	logger.Get().Info("password changed", zap.String("email", account.Email))
	return nil
}

// ResetOperationalData deletes the account's log, integrations, endpoint and
// plan mappings. The account itself and other accounts are untouched.
func (s *Service) ResetOperationalData(ctx context.Context, email, confirmation string) error {
	if strings.ToUpper(strings.TrimSpace(confirmation)) != ResetConfirmation {
		return ErrConfirmationMismatch
	}
	if err := s.store.DeleteRecords(ctx, email, models.OperationalKinds...); err != nil {
		return err
	}
	logger.Get().Warn("operational data reset", zap.String("email", email))
	return nil
}
