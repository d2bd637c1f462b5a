package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/auth-api-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Insert(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	return m.Called(ctx, email, updates).Error(0)
}

type mockVerificationStore struct{ mock.Mock }

func (m *mockVerificationStore) Put(ctx context.Context, v *domain.Verification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockVerificationStore) Get(ctx context.Context, accountID, channel string) (*domain.Verification, error) {
	args := m.Called(ctx, accountID, channel)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerificationStore) Delete(ctx context.Context, accountID, channel string) error {
	return m.Called(ctx, accountID, channel).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID string) (string, error) {
	args := m.Called(accountID)
	return args.String(0), args.Error(1)
}

// fakeCodes always issues the same code with a fixed TTL.
type fakeCodes struct {
	code string
	ttl  time.Duration
}

func (f *fakeCodes) Generate() (string, time.Time, error) {
	return f.code, time.Now().Add(f.ttl), nil
}
func (f *fakeCodes) TTL() time.Duration { return f.ttl }

// --- builder ---

func newService(as *mockAccountStore, vs *mockVerificationStore, ml *mockMailer, sms *mockSMSSender, signer *mockSigner) Service {
	return NewService(ServiceDeps{
		Accounts:      as,
		Verifications: vs,
		Mailer:        ml,
		SMSSender:     sms,
		Codes:         &fakeCodes{code: "482913", ttl: time.Hour},
		Signer:        signer,
	})
}

func digestOf(t *testing.T, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func containsCode(body, code string) bool {
	return strings.Contains(body, code)
}

// --- Signup ---

func TestSignup_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("Insert", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.Email == "a@x.com" && !a.Verified && a.AccountID != "" && a.SecretDigest != "secret1"
	})).Return(nil)
	vs.On("Put", mock.Anything, mock.MatchedBy(func(v *domain.Verification) bool {
		return v.Code == "482913" && v.Channel == domain.ChannelEmail && v.ExpiresAt > time.Now().Unix()
	})).Return(nil)
	ml.On("SendEmail", "a@x.com", "Email Verification", mock.MatchedBy(func(body string) bool {
		return containsCode(body, "482913")
	})).Return(nil)

	svc := newService(as, vs, ml, nil, nil)
	err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@x.com", Password: "secret1"})

	require.NoError(t, err)
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestSignup_NormalizesEmail(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("Insert", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
		return a.Email == "a@x.com"
	})).Return(nil)
	vs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(as, vs, ml, nil, nil)
	err := svc.Signup(context.Background(), domain.SignupRequest{Email: "  A@X.com ", Password: "secret1"})

	require.NoError(t, err)
	as.AssertExpectations(t)
}

func TestSignup_DuplicateEmail_Conflict(t *testing.T) {
	as := &mockAccountStore{}
	as.On("Insert", mock.Anything, mock.Anything).
		Return(fmt.Errorf("email already registered: %w", domain.ErrConflict))

	svc := newService(as, nil, nil, nil, nil)
	err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@x.com", Password: "secret1"})

	assert.Equal(t, domain.ErrConflict, err)
}

func TestSignup_DeliveryFailure_KeepsAccountAndCode(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("Insert", mock.Anything, mock.Anything).Return(nil)
	vs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(as, vs, ml, nil, nil)
	err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@x.com", Password: "secret1"})

	// Mutation is not rolled back: the caller recovers via resend.
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDependency))
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
}

func TestSignup_SMSMirror_BestEffort(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}
	sms := &mockSMSSender{}

	phone := "+15550001111"
	as.On("Insert", mock.Anything, mock.Anything).Return(nil)
	vs.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", "a@x.com", mock.Anything, mock.Anything).Return(nil)
	sms.On("SendSMS", mock.Anything, phone, mock.Anything).Return(errors.New("sns down"))

	svc := newService(as, vs, ml, sms, nil)
	err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@x.com", Password: "secret1", Phone: &phone})

	// SMS failure never fails the operation; email is the channel of record.
	require.NoError(t, err)
	sms.AssertExpectations(t)
}

// --- Verify ---

func TestVerify_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	signer := &mockSigner{}

	as.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com"}, nil)
	vs.On("Get", mock.Anything, "acc-1", domain.ChannelEmail).
		Return(&domain.Verification{AccountID: "acc-1", Channel: domain.ChannelEmail, Code: "482913", ExpiresAt: time.Now().Add(30 * time.Minute).Unix()}, nil)
	as.On("Update", mock.Anything, "a@x.com", map[string]interface{}{"verified": true}).Return(nil)
	vs.On("Delete", mock.Anything, "acc-1", domain.ChannelEmail).Return(nil)
	signer.On("Sign", "acc-1").Return("tok-1", nil)

	svc := newService(as, vs, nil, nil, signer)
	result, err := svc.Verify(context.Background(), domain.VerifyRequest{Email: "a@x.com", OTP: "482913"})

	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.True(t, result.Account.Verified)
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
	signer.AssertExpectations(t)
}

func TestVerify_FailureCauses_AreIndistinguishable(t *testing.T) {
	pending := func(code string, expiresAt time.Time) *domain.Verification {
		return &domain.Verification{AccountID: "acc-1", Channel: domain.ChannelEmail, Code: code, ExpiresAt: expiresAt.Unix()}
	}

	cases := []struct {
		name  string
		setup func(as *mockAccountStore, vs *mockVerificationStore)
	}{
		{"account does not exist", func(as *mockAccountStore, vs *mockVerificationStore) {
			as.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)
		}},
		{"already verified", func(as *mockAccountStore, vs *mockVerificationStore) {
			as.On("GetByEmail", mock.Anything, "a@x.com").
				Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com", Verified: true}, nil)
		}},
		{"no pending code", func(as *mockAccountStore, vs *mockVerificationStore) {
			as.On("GetByEmail", mock.Anything, "a@x.com").
				Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com"}, nil)
			vs.On("Get", mock.Anything, "acc-1", domain.ChannelEmail).Return(nil, domain.ErrNotFound)
		}},
		{"wrong code", func(as *mockAccountStore, vs *mockVerificationStore) {
			as.On("GetByEmail", mock.Anything, "a@x.com").
				Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com"}, nil)
			vs.On("Get", mock.Anything, "acc-1", domain.ChannelEmail).
				Return(pending("999999", time.Now().Add(time.Hour)), nil)
		}},
		{"expired code", func(as *mockAccountStore, vs *mockVerificationStore) {
			as.On("GetByEmail", mock.Anything, "a@x.com").
				Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com"}, nil)
			vs.On("Get", mock.Anything, "acc-1", domain.ChannelEmail).
				Return(pending("482913", time.Now().Add(-time.Minute)), nil)
		}},
	}

	var seen []error
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := &mockAccountStore{}
			vs := &mockVerificationStore{}
			tc.setup(as, vs)

			svc := newService(as, vs, nil, nil, nil)
			_, err := svc.Verify(context.Background(), domain.VerifyRequest{Email: "a@x.com", OTP: "482913"})

			require.Error(t, err)
			assert.Equal(t, domain.ErrInvalidOrExpiredCode, err)
			seen = append(seen, err)
		})
	}

	// Every cause yields the identical error value: nothing to enumerate on.
	for _, err := range seen {
		assert.Equal(t, seen[0], err)
	}
}

func TestVerify_StorageFailure_IsDependencyError(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("dynamo timeout"))

	svc := newService(as, nil, nil, nil, nil)
	_, err := svc.Verify(context.Background(), domain.VerifyRequest{Email: "a@x.com", OTP: "482913"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDependency))
	assert.NotEqual(t, domain.ErrInvalidOrExpiredCode, err)
}

// --- ResendOTP ---

func TestResendOTP_ReplacesCodeAndNotifies(t *testing.T) {
	as := &mockAccountStore{}
	vs := &mockVerificationStore{}
	ml := &mockMailer{}

	as.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com"}, nil)
	vs.On("Put", mock.Anything, mock.MatchedBy(func(v *domain.Verification) bool {
		return v.AccountID == "acc-1" && v.Code == "482913"
	})).Return(nil)
	ml.On("SendEmail", "a@x.com", "Email Verification", mock.MatchedBy(func(body string) bool {
		return containsCode(body, "482913")
	})).Return(nil)

	svc := newService(as, vs, ml, nil, nil)
	err := svc.ResendOTP(context.Background(), "a@x.com")

	require.NoError(t, err)
	as.AssertExpectations(t)
	vs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestResendOTP_FailureCauses_AreIndistinguishable(t *testing.T) {
	missing := &mockAccountStore{}
	missing.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)

	verified := &mockAccountStore{}
	verified.On("GetByEmail", mock.Anything, "a@x.com").
		Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com", Verified: true}, nil)

	errMissing := newService(missing, nil, nil, nil, nil).ResendOTP(context.Background(), "a@x.com")
	errVerified := newService(verified, nil, nil, nil, nil).ResendOTP(context.Background(), "a@x.com")

	assert.Equal(t, domain.ErrNotFoundOrVerified, errMissing)
	assert.Equal(t, errMissing, errVerified)
}

// --- Login ---

func TestLogin_HappyPath(t *testing.T) {
	as := &mockAccountStore{}
	signer := &mockSigner{}

	as.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID:    "acc-1",
		Email:        "a@x.com",
		Verified:     true,
		SecretDigest: digestOf(t, "secret1"),
	}, nil)
	signer.On("Sign", "acc-1").Return("tok-1", nil)

	svc := newService(as, nil, nil, nil, signer)
	result, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.True(t, result.Account.Verified)
}

func TestLogin_FailureCauses_AreIndistinguishable(t *testing.T) {
	missing := &mockAccountStore{}
	missing.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrNotFound)

	wrongSecret := &mockAccountStore{}
	wrongSecret.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID:    "acc-1",
		Email:        "a@x.com",
		Verified:     true,
		SecretDigest: digestOf(t, "secret1"),
	}, nil)

	_, errMissing := newService(missing, nil, nil, nil, nil).
		Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "secret1"})
	_, errWrong := newService(wrongSecret, nil, nil, nil, nil).
		Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "wrongsecret"})

	assert.Equal(t, domain.ErrInvalidCredentials, errMissing)
	assert.Equal(t, errMissing, errWrong)
}

func TestLogin_Unverified_NeverIssuesToken(t *testing.T) {
	as := &mockAccountStore{}
	signer := &mockSigner{}

	// Correct secret on an unverified account: the caller is told to verify,
	// and no token is minted.
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID:    "acc-1",
		Email:        "a@x.com",
		Verified:     false,
		SecretDigest: digestOf(t, "secret1"),
	}, nil)

	svc := newService(as, nil, nil, nil, signer)
	result, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "secret1"})

	assert.Nil(t, result)
	assert.Equal(t, domain.ErrNotVerified, err)
	signer.AssertNotCalled(t, "Sign", mock.Anything)
}

// --- GetProfile ---

func TestGetProfile_Found(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByID", mock.Anything, "acc-1").
		Return(&domain.Account{AccountID: "acc-1", Email: "a@x.com", Verified: true}, nil)

	svc := newService(as, nil, nil, nil, nil)
	a, err := svc.GetProfile(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", a.Email)
}

func TestGetProfile_NotFound(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByID", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := newService(as, nil, nil, nil, nil)
	_, err := svc.GetProfile(context.Background(), "nope")

	assert.Equal(t, domain.ErrNotFound, err)
}
