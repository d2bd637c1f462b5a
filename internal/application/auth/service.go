package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auth-api-nosql/internal/domain"
	"github.com/auth-api-nosql/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the credential store as seen by the engine. Insert must be
// atomic with respect to the email uniqueness constraint and report
// domain.ErrConflict on a duplicate.
type AccountStore interface {
	Insert(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

// VerificationStore holds at most one pending code per account and channel.
// Put overwrites, so issuing a code always invalidates the previous one.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, accountID, channel string) (*domain.Verification, error)
	Delete(ctx context.Context, accountID, channel string) error
}

// Mailer is the notification gateway for the email channel.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMSSender optionally mirrors the code to a phone number. Best-effort.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// CodeGenerator produces one-time codes and their expiry.
type CodeGenerator interface {
	Generate() (code string, expiresAt time.Time, err error)
	TTL() time.Duration
}

// TokenSigner mints bearer session tokens bound to an account id.
type TokenSigner interface {
	Sign(accountID string) (string, error)
}

// Result is the outcome of an operation that establishes a session.
type Result struct {
	Token   string
	Account *domain.Account
}

// Service is the account-verification and session-issuance engine.
//
// Error contract: the unified sentinels in internal/domain are returned bare,
// never wrapped with cause-specific text, so a caller cannot distinguish the
// underlying reason. Collaborator failures come back wrapped around
// domain.ErrDependency.
type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) error
	Verify(ctx context.Context, req domain.VerifyRequest) (*Result, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, req domain.LoginRequest) (*Result, error)
	GetProfile(ctx context.Context, accountID string) (*domain.Account, error)
}

type ServiceDeps struct {
	Accounts      AccountStore
	Verifications VerificationStore
	Mailer        Mailer
	SMSSender     SMSSender
	Codes         CodeGenerator
	Signer        TokenSigner
}

type service struct {
	accounts      AccountStore
	verifications VerificationStore
	mailer        Mailer
	smsSender     SMSSender
	codes         CodeGenerator
	signer        TokenSigner

	// emailMu serializes the read-then-write sequence per normalized email so
	// concurrent verifies or resends against one account cannot interleave.
	// No cross-account ordering is implied.
	mu      sync.Mutex
	emailMu map[string]*sync.Mutex
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:      deps.Accounts,
		verifications: deps.Verifications,
		mailer:        deps.Mailer,
		smsSender:     deps.SMSSender,
		codes:         deps.Codes,
		signer:        deps.Signer,
		emailMu:       make(map[string]*sync.Mutex),
	}
}

func (s *service) lockEmail(email string) func() {
	s.mu.Lock()
	l, ok := s.emailMu[email]
	if !ok {
		l = &sync.Mutex{}
		s.emailMu[email] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) error {
	email := domain.NormalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Email:        email,
		Phone:        req.Phone,
		SecretDigest: string(hash),
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	unlock := s.lockEmail(email)
	if err := s.accounts.Insert(ctx, a); err != nil {
		unlock()
		if errors.Is(err, domain.ErrConflict) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert account: %v: %w", err, domain.ErrDependency)
	}
	body, err := s.issueCode(ctx, a, "Your verification code is: %s. It expires in %d minutes.")
	unlock()
	if err != nil {
		return err
	}

	return s.deliver(ctx, a, body)
}

func (s *service) Verify(ctx context.Context, req domain.VerifyRequest) (*Result, error) {
	email := domain.NormalizeEmail(req.Email)
	defer s.lockEmail(email)()

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("load account: %v: %w", err, domain.ErrDependency)
	}
	// Verified implies no pending code, so a second consumption of the same
	// code lands here and gets the same answer as a wrong code.
	if a.Verified {
		return nil, domain.ErrInvalidOrExpiredCode
	}

	v, err := s.verifications.Get(ctx, a.AccountID, domain.ChannelEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("load verification: %v: %w", err, domain.ErrDependency)
	}
	if v.Code != req.OTP || v.ExpiresAt <= time.Now().Unix() {
		return nil, domain.ErrInvalidOrExpiredCode
	}

	if err := s.accounts.Update(ctx, email, map[string]interface{}{"verified": true}); err != nil {
		return nil, fmt.Errorf("mark verified: %v: %w", err, domain.ErrDependency)
	}
	if err := s.verifications.Delete(ctx, a.AccountID, domain.ChannelEmail); err != nil {
		// The code is already unusable (account is verified); losing the
		// delete only leaves a record for the TTL sweep.
		slog.Warn("failed to delete consumed verification code", "account_id", a.AccountID, "err", err)
	}
	a.Verified = true
	a.UpdatedAt = time.Now().UTC()

	token, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %v: %w", err, domain.ErrDependency)
	}
	return &Result{Token: token, Account: a}, nil
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	unlock := s.lockEmail(email)
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		unlock()
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFoundOrVerified
		}
		return fmt.Errorf("load account: %v: %w", err, domain.ErrDependency)
	}
	if a.Verified {
		unlock()
		return domain.ErrNotFoundOrVerified
	}
	body, err := s.issueCode(ctx, a, "Your new verification code is: %s. It expires in %d minutes.")
	unlock()
	if err != nil {
		return err
	}

	return s.deliver(ctx, a, body)
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	email := domain.NormalizeEmail(req.Email)

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %v: %w", err, domain.ErrDependency)
	}
	// Unverified accounts are told so before the secret is checked; this is
	// the one deliberate asymmetry in the login path.
	if !a.Verified {
		return nil, domain.ErrNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.SecretDigest), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %v: %w", err, domain.ErrDependency)
	}
	return &Result{Token: token, Account: a}, nil
}

func (s *service) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load account: %v: %w", err, domain.ErrDependency)
	}
	return a, nil
}

// issueCode persists a fresh code for the account and returns the message
// body to deliver. Must be called with the account's email lock held.
func (s *service) issueCode(ctx context.Context, a *domain.Account, bodyFormat string) (string, error) {
	code, expiresAt, err := s.codes.Generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %v: %w", err, domain.ErrDependency)
	}
	v := &domain.Verification{
		AccountID: a.AccountID,
		Channel:   domain.ChannelEmail,
		Code:      code,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return "", fmt.Errorf("store verification: %v: %w", err, domain.ErrDependency)
	}
	return fmt.Sprintf(bodyFormat, code, int(s.codes.TTL().Minutes())), nil
}

// deliver dispatches the code message outside the account lock.
// Persist-then-notify: on delivery failure the stored code is kept and the
// caller gets a recoverable error, so a later resend (or the email arriving
// after all) still matches what is stored.
func (s *service) deliver(ctx context.Context, a *domain.Account, body string) error {
	if err := s.mailer.SendEmail(a.Email, "Email Verification", body); err != nil {
		slog.Error("verification email delivery failed", "account_id", a.AccountID, "err", err)
		return fmt.Errorf("verification code could not be delivered: %w", domain.ErrDependency)
	}

	if a.Phone != nil && s.smsSender != nil {
		if err := s.smsSender.SendSMS(ctx, *a.Phone, body); err != nil {
			slog.Warn("verification sms delivery failed", "account_id", a.AccountID, "err", err)
		}
	}
	return nil
}
