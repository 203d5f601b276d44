// Package flow owns the login and registration state machines. One Controller
// instance exists per authentication attempt and holds all of the attempt's
// state: the current step, the pending captcha token, and the identifier under
// verification. Nothing here is shared across attempts.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vidyasetu/auth-api/internal/application/captcha"
	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/phone"
)

// State is the discriminated union of attempt states.
type State string

const (
	StateCollectingIdentifier State = "collecting_identifier"
	StateCollectingDetails    State = "collecting_details"
	StateAwaitingOtp          State = "awaiting_otp"
	StateAuthenticated        State = "authenticated"
	StateRejected             State = "rejected"
	StateCancelled            State = "cancelled"
)

// Kind selects between the two machine variants.
type Kind string

const (
	KindLogin        Kind = "login"
	KindRegistration Kind = "registration"
)

// RejectReason tags the Rejected terminal state.
type RejectReason string

const (
	ReasonNoProfile    RejectReason = "no_profile"
	ReasonRoleMismatch RejectReason = "role_mismatch"
)

// Signal is the termination event the flow emits to its caller.
type Signal string

const (
	SignalAdmitted          Signal = "admitted"
	SignalNeedsRegistration Signal = "needs-registration"
	SignalRejected          Signal = "rejected"
)

// Decision is the outcome of a code submission that reached a terminal state.
type Decision struct {
	Signal   Signal
	Role     domain.Role
	Reason   RejectReason
	Identity domain.VerifiedIdentity
}

type otpChannel interface {
	Request(ctx context.Context, identifier string) error
	Verify(ctx context.Context, identifier, code string) (domain.VerifiedIdentity, error)
	Discard(identifier string)
}

type roleAuthorizer interface {
	Authorize(ctx context.Context, identity domain.VerifiedIdentity, expected domain.Role) (domain.Role, error)
}

type profileProvisioner interface {
	ValidateAttributes(role domain.Role, attrs map[string]string) error
	CreateIfAbsent(ctx context.Context, identity domain.VerifiedIdentity, role domain.Role, attrs map[string]string) error
}

// Deps wires the controller to its collaborators.
type Deps struct {
	Otp         otpChannel
	Guard       roleAuthorizer
	Provisioner profileProvisioner
	CallingCode string
}

// Controller drives a single attempt through its states. Every event takes the
// attempt lock; network-bound sections release it and re-check the generation
// counter on return, so a call that resolves after cancellation cannot
// resurrect discarded state.
type Controller struct {
	mu           sync.Mutex
	kind         Kind
	expectedRole domain.Role
	deps         Deps
	captcha      *captcha.Challenge // login only

	state      State
	identifier string
	details    map[string]string
	identity   *domain.VerifiedIdentity // retained for provisioning retries
	role       domain.Role
	reason     RejectReason
	busy       bool
	gen        uint64
	lastEvent  time.Time
}

// NewLogin starts a login attempt for the given dashboard role. The captcha is
// generated eagerly so the entry form can display it.
func NewLogin(expectedRole domain.Role, deps Deps) *Controller {
	return &Controller{
		kind:         KindLogin,
		expectedRole: expectedRole,
		deps:         deps,
		captcha:      captcha.New(),
		state:        StateCollectingIdentifier,
		lastEvent:    time.Now(),
	}
}

// NewRegistration starts a registration attempt. The observed registration
// forms carry no captcha; the flow begins at the details-collection step.
func NewRegistration(role domain.Role, deps Deps) *Controller {
	return &Controller{
		kind:         KindRegistration,
		expectedRole: role,
		deps:         deps,
		state:        StateCollectingDetails,
		lastEvent:    time.Now(),
	}
}

func (c *Controller) Kind() Kind { return c.kind }

// Snapshot is the externally visible view of an attempt.
type Snapshot struct {
	State   State        `json:"state"`
	Role    domain.Role  `json:"role,omitempty"`
	Reason  RejectReason `json:"reason,omitempty"`
	Captcha string       `json:"captcha,omitempty"`
	Mobile  string       `json:"mobile,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state, Role: c.role, Reason: c.reason}
	if c.captcha != nil && c.state == StateCollectingIdentifier {
		s.Captcha = c.captcha.Token()
	}
	if c.identifier != "" {
		s.Mobile = phone.Mask(c.identifier, c.deps.CallingCode)
	}
	return s
}

// RefreshCaptcha regenerates the challenge on explicit user request.
func (c *Controller) RefreshCaptcha() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return "", domain.ErrAttemptDone
	}
	if c.captcha == nil || c.state != StateCollectingIdentifier {
		return "", fmt.Errorf("no captcha at this step: %w", domain.ErrBadRequest)
	}
	c.lastEvent = time.Now()
	return c.captcha.Generate(), nil
}

// SubmitIdentifier handles the login entry form: captcha answer plus mobile
// number. Captcha and identifier format are checked before any network call;
// a captcha failure regenerates the challenge and keeps the flow at the entry
// step.
func (c *Controller) SubmitIdentifier(ctx context.Context, identifier, captchaAnswer string) error {
	c.mu.Lock()
	if err := c.acceptEvent(StateCollectingIdentifier); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.captcha.Check(captchaAnswer) {
		c.captcha.Generate()
		c.mu.Unlock()
		return domain.ErrCaptchaMismatch
	}
	if !phone.IsLocalFormat(identifier) {
		c.mu.Unlock()
		return fmt.Errorf("mobile number must be exactly 10 digits: %w", domain.ErrSendFailure)
	}
	gen := c.begin()
	c.mu.Unlock()

	err := c.deps.Otp.Request(ctx, identifier)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolve(gen) {
		return domain.ErrAttemptDone
	}
	if err != nil {
		return err
	}
	c.identifier = identifier
	c.state = StateAwaitingOtp
	return nil
}

// SubmitDetails handles the registration form: role attributes plus mobile
// number. Attributes are validated against the role schema before the OTP is
// requested so form errors never cost a round-trip.
func (c *Controller) SubmitDetails(ctx context.Context, identifier string, details map[string]string) error {
	c.mu.Lock()
	if err := c.acceptEvent(StateCollectingDetails); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.deps.Provisioner.ValidateAttributes(c.expectedRole, details); err != nil {
		c.mu.Unlock()
		return err
	}
	if !phone.IsLocalFormat(identifier) {
		c.mu.Unlock()
		return fmt.Errorf("mobile number must be exactly 10 digits: %w", domain.ErrSendFailure)
	}
	gen := c.begin()
	c.mu.Unlock()

	err := c.deps.Otp.Request(ctx, identifier)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolve(gen) {
		return domain.ErrAttemptDone
	}
	if err != nil {
		return err
	}
	c.identifier = identifier
	c.details = details
	c.state = StateAwaitingOtp
	return nil
}

// SubmitCode verifies the OTP and runs the terminal step of the machine: the
// role guard for logins, profile provisioning for registrations. A verification
// failure keeps the flow in AwaitingOtp. A provisioning or lookup failure after
// a successful verification retains the verified identity so a retry does not
// burn another code.
func (c *Controller) SubmitCode(ctx context.Context, code string) (*Decision, error) {
	c.mu.Lock()
	if err := c.acceptEvent(StateAwaitingOtp); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	gen := c.begin()
	identifier := c.identifier
	verified := c.identity
	details := c.details
	c.mu.Unlock()

	var identity domain.VerifiedIdentity
	var err error
	if verified != nil {
		identity = *verified
	} else {
		identity, err = c.deps.Otp.Verify(ctx, identifier, code)
		if err != nil {
			c.mu.Lock()
			defer c.mu.Unlock()
			if !c.resolve(gen) {
				return nil, domain.ErrAttemptDone
			}
			return nil, err
		}
	}

	var decision *Decision
	var stepErr error
	switch c.kind {
	case KindLogin:
		role, aerr := c.deps.Guard.Authorize(ctx, identity, c.expectedRole)
		switch {
		case aerr == nil:
			decision = &Decision{Signal: SignalAdmitted, Role: role, Identity: identity}
		case errors.Is(aerr, domain.ErrNoProfile):
			decision = &Decision{Signal: SignalNeedsRegistration, Reason: ReasonNoProfile, Identity: identity}
		case errors.Is(aerr, domain.ErrRoleMismatch):
			decision = &Decision{Signal: SignalRejected, Reason: ReasonRoleMismatch}
		default:
			stepErr = aerr
		}
	case KindRegistration:
		if perr := c.deps.Provisioner.CreateIfAbsent(ctx, identity, c.expectedRole, details); perr != nil {
			stepErr = perr
		} else {
			decision = &Decision{Signal: SignalAdmitted, Role: c.expectedRole, Identity: identity}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resolve(gen) {
		return nil, domain.ErrAttemptDone
	}
	if stepErr != nil {
		// Verification succeeded; keep the identity so the next SubmitCode
		// retries the terminal step instead of re-verifying a consumed code.
		c.identity = &identity
		return nil, stepErr
	}

	switch decision.Signal {
	case SignalAdmitted:
		c.state = StateAuthenticated
		c.role = decision.Role
	case SignalNeedsRegistration, SignalRejected:
		c.state = StateRejected
		c.reason = decision.Reason
	}
	return decision, nil
}

// ChangeIdentifier returns the attempt to its entry step, discarding the OTP
// session, any verified identity, and the displayed captcha.
func (c *Controller) ChangeIdentifier() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return domain.ErrAttemptDone
	}
	c.discardLocked()
	if c.kind == KindLogin {
		c.state = StateCollectingIdentifier
		c.captcha.Generate()
	} else {
		c.state = StateCollectingDetails
	}
	c.lastEvent = time.Now()
	return nil
}

// Cancel destroys the attempt state. Any in-flight call that resolves later is
// ignored.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return
	}
	c.discardLocked()
	c.state = StateCancelled
	c.lastEvent = time.Now()
}

// acceptEvent gates an incoming event: the attempt must be live, idle, and at
// the expected step. Caller holds the lock.
func (c *Controller) acceptEvent(want State) error {
	if c.terminal() {
		return domain.ErrAttemptDone
	}
	if c.busy {
		return domain.ErrBusy
	}
	if c.state != want {
		return fmt.Errorf("event not valid in state %q: %w", c.state, domain.ErrBadRequest)
	}
	c.lastEvent = time.Now()
	return nil
}

// begin marks a network-bound call outstanding. Caller holds the lock.
func (c *Controller) begin() uint64 {
	c.busy = true
	return c.gen
}

// resolve clears the busy flag when the generation still matches; a false
// return means the attempt was cancelled or reset while the call was in
// flight and its result must be dropped. Caller holds the lock.
func (c *Controller) resolve(gen uint64) bool {
	if c.gen != gen {
		return false
	}
	c.busy = false
	return true
}

func (c *Controller) discardLocked() {
	c.gen++
	c.busy = false
	if c.identifier != "" {
		c.deps.Otp.Discard(c.identifier)
	}
	c.identifier = ""
	c.identity = nil
}

func (c *Controller) terminal() bool {
	switch c.state {
	case StateAuthenticated, StateRejected, StateCancelled:
		return true
	}
	return false
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEvent
}
