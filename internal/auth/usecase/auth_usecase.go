package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/semaphore"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	authService "github.com/betshield/betshield-api/internal/auth/service"
	"github.com/betshield/betshield-api/internal/config"
	"github.com/betshield/betshield-api/internal/database"
	apperrors "github.com/betshield/betshield-api/internal/errors"
	userDomain "github.com/betshield/betshield-api/internal/user/domain"
	appValidation "github.com/betshield/betshield-api/internal/validation"
)

const (
	// maxPendingFailureWrites bounds background failure state updates.
	maxPendingFailureWrites = 64
	failureWriteTimeout     = 5 * time.Second
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	config         *config.Config
	txManager      database.TxManager
	userRepo       UserRepository
	passwordHasher authService.PasswordHasher
	tokenService   authService.TokenService
	ipGuard        Guard
	lockoutGuard   Guard
	hashSlots      *semaphore.Weighted
	dummyHash      string
	logger         *slog.Logger
	now            func() time.Time

	failureSlots  *semaphore.Weighted
	failureWrites sync.WaitGroup
}

// NewAuthUseCase creates the auth pipeline.
//
// ipGuard limits register and login volume per client IP. lockoutGuard counts
// failed logins per account email. Both must be backed by separate key spaces.
func NewAuthUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	userRepo UserRepository,
	passwordHasher authService.PasswordHasher,
	tokenService authService.TokenService,
	ipGuard Guard,
	lockoutGuard Guard,
	logger *slog.Logger,
) (AuthUseCase, error) {
	if ipGuard.Name() == lockoutGuard.Name() {
		return nil, errors.New("ip guard and lockout guard must not share a name")
	}

	// Unknown emails are verified against this hash so they cost as much as a wrong password.
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate dummy password")
	}
	dummyHash, err := passwordHasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to compute dummy hash")
	}

	slots := int64(cfg.HashMaxConcurrency)
	if slots < 1 {
		slots = 1
	}

	return &authUseCase{
		config:         cfg,
		txManager:      txManager,
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		tokenService:   tokenService,
		ipGuard:        ipGuard,
		lockoutGuard:   lockoutGuard,
		hashSlots:      semaphore.NewWeighted(slots),
		dummyHash:      dummyHash,
		logger:         logger,
		now:            time.Now,
		failureSlots:   semaphore.NewWeighted(maxPendingFailureWrites),
	}, nil
}

func (a *authUseCase) validateRegisterInput(input *RegisterInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.Email,
			validation.Length(3, 320),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			appValidation.PasswordStrength{MinLength: a.config.PasswordMinLength},
		),
	)
	return appValidation.WrapValidationError(err)
}

func validateLoginInput(input *LoginInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Email, validation.Required.Error("email is required")),
		validation.Field(&input.Password, validation.Required.Error("password is required")),
	)
	return appValidation.WrapValidationError(err)
}

// Register implements the registration flow:
// validate, admit by IP, reject duplicates, hash, persist and issue a token atomically.
func (a *authUseCase) Register(ctx context.Context, input *RegisterInput) (output *AuthOutput, err error) {
	input.Name = appValidation.SanitizeName(input.Name)
	input.Email = appValidation.NormalizeEmail(input.Email)
	if err := a.validateRegisterInput(input); err != nil {
		return nil, err
	}

	if err := a.admit(ctx, a.ipGuard, input.ClientIP); err != nil {
		return nil, err
	}
	defer func() {
		a.recordOutcome(ctx, a.ipGuard, input.ClientIP, outcomeOf(err))
	}()

	if _, err := a.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, userDomain.ErrUserAlreadyExists
	} else if !errors.Is(err, userDomain.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := a.hash(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user := &userDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         authDomain.RoleUser,
	}

	var token *authDomain.IssuedToken
	// A token failure rolls the identity back so a registration is all or nothing.
	err = a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.userRepo.Create(ctx, user); err != nil {
			return err
		}
		issued, err := a.tokenService.Issue(user.ID, user.Role, a.config.AuthRegisterTokenTTL)
		if err != nil {
			return apperrors.Wrap(err, "failed to issue token")
		}
		token = issued
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return &AuthOutput{Token: token, User: user}, nil
}

// Login implements the login flow. Unknown accounts and wrong passwords take
// the same path through the hasher and return the same error.
func (a *authUseCase) Login(ctx context.Context, input *LoginInput) (output *AuthOutput, err error) {
	input.Email = appValidation.NormalizeEmail(input.Email)
	if err := validateLoginInput(input); err != nil {
		return nil, err
	}

	if err := a.admit(ctx, a.ipGuard, input.ClientIP); err != nil {
		return nil, err
	}
	defer func() {
		a.recordOutcome(ctx, a.ipGuard, input.ClientIP, outcomeOf(err))
	}()

	// A locked account is rejected before the credential store is consulted.
	if err := a.admit(ctx, a.lockoutGuard, input.Email); err != nil {
		return nil, err
	}

	user, err := a.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, userDomain.ErrUserNotFound) {
			a.release(ctx, a.lockoutGuard, input.Email)
			return nil, err
		}
		if _, err := a.verify(ctx, input.Password, a.dummyHash); err != nil {
			a.release(ctx, a.lockoutGuard, input.Email)
			return nil, err
		}
		a.recordOutcome(ctx, a.lockoutGuard, input.Email, authDomain.OutcomeFailure)
		return nil, apperrors.ErrInvalidCredentials
	}

	ok, err := a.verify(ctx, input.Password, user.PasswordHash)
	if err != nil {
		a.release(ctx, a.lockoutGuard, input.Email)
		return nil, err
	}
	if !ok {
		a.recordOutcome(ctx, a.lockoutGuard, input.Email, authDomain.OutcomeFailure)
		a.trackFailure(ctx, user)
		return nil, apperrors.ErrInvalidCredentials
	}

	a.recordOutcome(ctx, a.lockoutGuard, input.Email, authDomain.OutcomeSuccess)
	a.clearFailures(ctx, user)

	token, err := a.tokenService.Issue(user.ID, user.Role, a.config.AuthLoginTokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue token")
	}
	return &AuthOutput{Token: token, User: user}, nil
}

// Authenticate verifies the token and returns its principal.
func (a *authUseCase) Authenticate(ctx context.Context, token string) (*authDomain.Principal, error) {
	if token == "" {
		return nil, authDomain.ErrMissingToken
	}
	claims, err := a.tokenService.Verify(token)
	if err != nil {
		return nil, err
	}
	return authDomain.PrincipalFromClaims(claims), nil
}

// admit returns a TooManyRequestsError when g rejects clientKey.
// Store failures surface as internal errors.
func (a *authUseCase) admit(ctx context.Context, g Guard, clientKey string) error {
	decision, err := g.CheckAdmission(ctx, clientKey)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperrors.NewTooManyRequests(g.Name(), decision.RetryAfter)
	}
	return nil
}

// recordOutcome stores the outcome of an admitted attempt. The response is
// already decided at this point, so store failures are logged only.
func (a *authUseCase) recordOutcome(ctx context.Context, g Guard, clientKey string, outcome authDomain.Outcome) {
	if err := g.RecordOutcome(context.WithoutCancel(ctx), clientKey, outcome); err != nil {
		a.logger.Error("failed to record attempt outcome",
			slog.String("guard", g.Name()),
			slog.String("outcome", string(outcome)),
			slog.Any("error", err),
		)
	}
}

// release gives back the slot of an attempt that ended before its outcome was known.
func (a *authUseCase) release(ctx context.Context, g Guard, clientKey string) {
	if err := g.Release(context.WithoutCancel(ctx), clientKey); err != nil {
		a.logger.Error("failed to release attempt",
			slog.String("guard", g.Name()),
			slog.Any("error", err),
		)
	}
}

func (a *authUseCase) hash(ctx context.Context, password string) (string, error) {
	if err := a.hashSlots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer a.hashSlots.Release(1)
	return a.passwordHasher.Hash(password)
}

func (a *authUseCase) verify(ctx context.Context, password, hashed string) (bool, error) {
	if err := a.hashSlots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer a.hashSlots.Release(1)
	return a.passwordHasher.Verify(password, hashed), nil
}

// trackFailure updates the failure state in the background. The response for
// a wrong password must not wait on a write that an unknown email never makes.
// Updates beyond maxPendingFailureWrites are dropped.
func (a *authUseCase) trackFailure(ctx context.Context, user *userDomain.User) {
	if !a.failureSlots.TryAcquire(1) {
		a.logger.Warn("dropping login failure state update", slog.String("user_id", user.ID.String()))
		return
	}

	ctx = context.WithoutCancel(ctx)
	id := user.ID
	attempts := user.FailedLoginAttempts + 1
	now := a.now().UTC()

	a.failureWrites.Add(1)
	go func() {
		defer a.failureWrites.Done()
		defer a.failureSlots.Release(1)

		ctx, cancel := context.WithTimeout(ctx, failureWriteTimeout)
		defer cancel()

		if err := a.userRepo.UpdateFailureState(ctx, id, attempts, &now); err != nil {
			a.logger.Warn("failed to update login failure state",
				slog.String("user_id", id.String()),
				slog.Any("error", err),
			)
		}
	}()
}

// Close waits for background failure state updates to finish.
func (a *authUseCase) Close() error {
	a.failureWrites.Wait()
	return nil
}

func (a *authUseCase) clearFailures(ctx context.Context, user *userDomain.User) {
	if user.FailedLoginAttempts == 0 && user.LastFailedLoginAt == nil {
		return
	}
	if err := a.userRepo.UpdateFailureState(context.WithoutCancel(ctx), user.ID, 0, nil); err != nil {
		a.logger.Warn("failed to reset login failure state",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	user.FailedLoginAttempts = 0
	user.LastFailedLoginAt = nil
}

func outcomeOf(err error) authDomain.Outcome {
	if err != nil {
		return authDomain.OutcomeFailure
	}
	return authDomain.OutcomeSuccess
}
