package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateAccount   = errors.New("this email is already in use")
)

// ValidationError lists the rejected sign-up fields with a user-facing message.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone11"`
	Password string `json:"password" validate:"required,pwbytes"`
}

// Service handles registration, sign-in and lifecycle transitions.
type Service struct {
	store repository.RecordStore
}

func NewService(store repository.RecordStore) *Service {
	return &Service{store: store}
}

// SignUp creates an account with both lifecycle flags false and seeds an empty
// event log plus disconnected integrations. Nothing is written on failure.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	in.Phone = models.NormalizePhone(in.Phone)

	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAccount(ctx, in.Email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	account, err := models.NewAccount(in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	if err := s.store.SaveEventLog(ctx, account.Email, nil); err != nil {
		return nil, fmt.Errorf("seed event log: %w", err)
	}
	if err := s.store.SaveIntegrations(ctx, account.Email, models.DisconnectedIntegrations()); err != nil {
		return nil, fmt.Errorf("seed integrations: %w", err)
	}

	logger.Get().Info("account created", zap.String("email", account.Email))
	return account, nil
}

func validateSignUp(in SignUpInput) error {
	err := models.Validator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	missing, badPhone, badEmail, longPassword := false, false, false, false
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
		switch fe.Tag() {
		case "required":
			missing = true
		case "phone11":
			badPhone = true
		case "email":
			badEmail = true
		case "pwbytes":
			longPassword = true
		}
	}
	sort.Strings(fields)

	msg := "invalid sign-up data"
	switch {
	case missing:
		msg = "all fields are required"
	case badPhone:
		msg = "invalid phone number (area code + number, 11 digits)"
	case badEmail:
		msg = "invalid email address"
	case longPassword:
		msg = fmt.Sprintf("password must be at most %d bytes", models.MaxPasswordBytes)
	}
	return &ValidationError{Fields: fields, Message: msg}
}

// SignIn returns the account when email and password match.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Resolve loads the account behind a session pointer. An empty or stale
// pointer resolves to (nil, StateUnauthenticated).
func (s *Service) Resolve(ctx context.Context, email string) (*models.Account, State, error) {
	if strings.TrimSpace(email) == "" {
		return nil, StateUnauthenticated, nil
	}
	account, err := s.store.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, StateUnauthenticated, nil
		}
		return nil, StateUnauthenticated, err
	}
	return account, StateOf(account), nil
}

// CompleteOnboarding records that the first-run explainer was shown.
func (s *Service) CompleteOnboarding(ctx context.Context, email string) (State, error) {
	return s.transition(ctx, email, EventOnboardingCompleted)
}

// ActivateSubscription marks the paid subscription active.
func (s *Service) ActivateSubscription(ctx context.Context, email string) (State, error) {
	return s.transition(ctx, email, EventSubscriptionActivated)
}

func (s *Service) transition(ctx context.Context, email string, ev Event) (State, error) {
	account, err := s.store.GetAccount(ctx, email)
	if err != nil {
		return StateUnauthenticated, err
	}
	next, err := Apply(account, ev)
	if err != nil {
		return next, err
	}
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return StateUnauthenticated, err
	}
	logger.Get().Info("lifecycle transition",
		zap.String("email", account.Email),
		zap.String("event", string(ev)),
		zap.String("state", string(next)))
	return next, nil
}
