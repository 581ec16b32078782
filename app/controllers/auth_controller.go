package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/identity"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/session"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/usercontext"
)

type AuthController struct {
	identity *identity.Service
	sessions *session.Manager
}

func NewAuthController(ids *identity.Service, sessions *session.Manager) *AuthController {
	return &AuthController{identity: ids, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionResponse(account *models.Account, state identity.State) fiber.Map {
	return fiber.Map{
		"logged_in": account != nil,
		"account":   account,
		"state":     state,
		"screen":    state.Screen(),
	}
}

// HandleSignUp registers an account and signs it in.
func (a *AuthController) HandleSignUp(c *fiber.Ctx) error {
	var in identity.SignUpInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	account, err := a.identity.SignUp(c.UserContext(), in)
	if err != nil {
		var verr *identity.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "validation_failed",
				"message": verr.Message,
				"fields":  verr.Fields,
			})
		case errors.Is(err, identity.ErrDuplicateAccount):
			return errorJSON(c, fiber.StatusConflict, "duplicate_account", err.Error())
		default:
			logger.Get().Error("sign-up failed", zap.Error(err))
			return internalError(c, "failed to create account")
		}
	}

	if err := a.sessions.SignIn(c, account.Email); err != nil {
		logger.Get().Error("failed to start session", zap.Error(err))
		return internalError(c, "failed to start session")
	}
	return c.Status(fiber.StatusCreated).JSON(sessionResponse(account, identity.StateOf(account)))
}

func (a *AuthController) HandleLogin(c *fiber.Ctx) error {
	var in loginRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	account, err := a.identity.SignIn(c.UserContext(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			logger.Get().Info("failed login", zap.String("email", in.Email), zap.String("ip", GetClientIP(c)))
			return errorJSON(c, fiber.StatusUnauthorized, "invalid_credentials", err.Error())
		}
		return internalError(c, "failed to sign in")
	}

	if err := a.sessions.SignIn(c, account.Email); err != nil {
		return internalError(c, "failed to start session")
	}
	return c.JSON(sessionResponse(account, identity.StateOf(account)))
}

func (a *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := a.sessions.SignOut(c); err != nil {
		return internalError(c, "failed to end session")
	}
	return c.JSON(fiber.Map{"message": "signed out", "screen": identity.ScreenLogin})
}

// HandleSession reports the current lifecycle state; it never fails for
// anonymous visitors.
func (a *AuthController) HandleSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.JSON(sessionResponse(nil, identity.StateUnauthenticated))
	}
	account, state, err := a.identity.Resolve(c.UserContext(), userCtx.Email)
	if err != nil {
		return internalError(c, "failed to load account")
	}
	return c.JSON(sessionResponse(account, state))
}

func (a *AuthController) HandleCompleteOnboarding(c *fiber.Ctx) error {
	return a.transition(c, a.identity.CompleteOnboarding)
}

// HandleActivateSubscription completes the simulated checkout of the paid plan.
func (a *AuthController) HandleActivateSubscription(c *fiber.Ctx) error {
	return a.transition(c, a.identity.ActivateSubscription)
}

func (a *AuthController) transition(c *fiber.Ctx, apply func(ctx context.Context, email string) (identity.State, error)) error {
	state, err := apply(c.UserContext(), usercontext.GetEmail(c))
	if err != nil {
		if errors.Is(err, identity.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "invalid_transition",
				"message": err.Error(),
				"state":   state,
				"screen":  state.Screen(),
			})
		}
		return internalError(c, "failed to update account")
	}
	return c.JSON(fiber.Map{"state": state, "screen": state.Screen()})
}
