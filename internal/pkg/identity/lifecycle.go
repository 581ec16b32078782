package identity

import (
	"errors"
	"fmt"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// State is the lifecycle position of the current visitor.
type State string

const (
	StateUnauthenticated     State = "unauthenticated"
	StatePendingOnboarding   State = "pending_onboarding"
	StatePendingSubscription State = "pending_subscription"
	StateActive              State = "active"
)

// Event drives a lifecycle transition.
type Event string

const (
	EventOnboardingCompleted   Event = "onboarding_completed"
	EventSubscriptionActivated Event = "subscription_activated"
)

// Screen is the top-level view a client must render for a state.
type Screen string

const (
	ScreenLogin      Screen = "login"
	ScreenOnboarding Screen = "onboarding"
	ScreenPricing    Screen = "pricing"
	ScreenApp        Screen = "app"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// StateOf derives the state of an account. Onboarding is checked before the
// subscription; a nil account is unauthenticated.
func StateOf(a *models.Account) State {
	switch {
	case a == nil:
		return StateUnauthenticated
	case !a.HasSeenOnboarding:
		return StatePendingOnboarding
	case !a.HasActiveSubscription:
		return StatePendingSubscription
	default:
		return StateActive
	}
}

func (s State) Screen() Screen {
	switch s {
	case StatePendingOnboarding:
		return ScreenOnboarding
	case StatePendingSubscription:
		return ScreenPricing
	case StateActive:
		return ScreenApp
	default:
		return ScreenLogin
	}
}

// Apply moves the account along the lifecycle. Each event is only valid from
// the state directly before it.
func Apply(a *models.Account, ev Event) (State, error) {
	from := StateOf(a)
	switch {
	case ev == EventOnboardingCompleted && from == StatePendingOnboarding:
		a.HasSeenOnboarding = true
	case ev == EventSubscriptionActivated && from == StatePendingSubscription:
		a.HasActiveSubscription = true
	default:
		return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, from)
	}
	return StateOf(a), nil
}
