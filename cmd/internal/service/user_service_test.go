package service

import (
	"testing"

	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"slotswapper/cmd/internal/domain/entity"
	"slotswapper/cmd/internal/domain/sqlite"
	"slotswapper/cmd/internal/domain/sqlite/repository"
	cognitoclient "slotswapper/cmd/internal/integration/aws/cognito"
	"slotswapper/cmd/internal/utils/apierror"
)

type fakeCognito struct {
	signUpSub  string
	signUpErr  error
	signInErr  error
	confirmErr error
	deleted    []string
}

func (f *fakeCognito) SignUp(user *cognitoclient.User) (string, error) {
	if f.signUpErr != nil {
		return "", f.signUpErr
	}
	return f.signUpSub, nil
}

func (f *fakeCognito) SignIn(login *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &cognitoclient.AuthCreate{AccessToken: "access-token", IDToken: "id-token"}, nil
}

func (f *fakeCognito) ConfirmAccount(confirmation *cognitoclient.UserConfirmation) error {
	return f.confirmErr
}

func (f *fakeCognito) AdminDeleteUser(email string) error {
	f.deleted = append(f.deleted, email)
	return nil
}

func newUserService(t *testing.T, cognito *fakeCognito) (*DefaultUserService, *gorm.DB) {
	t.Helper()
	db, err := sqlite.Init(":memory:")
	require.NoError(t, err)

	svc := NewUserService(repository.NewUserRepository(db), newTestValidator(t), cognito)
	return svc, db
}

func TestCreateUser(t *testing.T) {
	sub := uuid.NewString()
	svc, db := newUserService(t, &fakeCognito{signUpSub: sub})

	apierr := svc.CreateUser(&CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r!Secret",
	})
	require.Nil(t, apierr)

	var user entity.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.Equal(t, sub, user.SubUUID)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.EmailVerified)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t, &fakeCognito{signUpSub: uuid.NewString()})

	req := &CreateUserRequest{Username: "alice", Email: "alice@example.com", Password: "Sup3r!Secret"}
	require.Nil(t, svc.CreateUser(req))
	assert.Equal(t, apierror.UserAlreadyExistsError, svc.CreateUser(req))
}

func TestCreateUserWeakPassword(t *testing.T) {
	svc, _ := newUserService(t, &fakeCognito{signUpSub: uuid.NewString()})

	apierr := svc.CreateUser(&CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "alllowercase1!",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, 400, apierr.Code())
}

func TestCreateUserIDPErrorMapping(t *testing.T) {
	svc, _ := newUserService(t, &fakeCognito{
		signUpErr: &smithy.GenericAPIError{Code: "UsernameExistsException", Message: "exists"},
	})

	apierr := svc.CreateUser(&CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r!Secret",
	})
	assert.Equal(t, apierror.IDPExistingEmailError, apierr)
}

func TestLogin(t *testing.T) {
	cognito := &fakeCognito{signUpSub: uuid.NewString()}
	svc, _ := newUserService(t, cognito)
	require.Nil(t, svc.CreateUser(&CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r!Secret",
	}))

	resp, apierr := svc.Login(&UserLoginRequest{Email: "alice@example.com", Password: "Sup3r!Secret"})
	require.Nil(t, apierr)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "id-token", resp.IDToken)

	resp, apierr = svc.Login(&UserLoginRequest{Email: "nobody@example.com", Password: "Sup3r!Secret"})
	assert.Nil(t, resp)
	assert.Equal(t, apierror.IDPUserNotFoundError, apierr)

	cognito.signInErr = &smithy.GenericAPIError{Code: "NotAuthorizedException", Message: "bad credentials"}
	resp, apierr = svc.Login(&UserLoginRequest{Email: "alice@example.com", Password: "Wrong!Pass1x"})
	assert.Nil(t, resp)
	assert.Equal(t, apierror.IDPCredentialsMismatchError, apierr)
}

func TestConfirmSignup(t *testing.T) {
	cognito := &fakeCognito{signUpSub: uuid.NewString()}
	svc, db := newUserService(t, cognito)
	require.Nil(t, svc.CreateUser(&CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3r!Secret",
	}))

	cognito.confirmErr = &smithy.GenericAPIError{Code: "CodeMismatchException", Message: "nope"}
	apierr := svc.ConfirmSignup(&ConfirmSignupRequest{Email: "alice@example.com", Code: "000000"})
	assert.Equal(t, apierror.IDPConfirmCodeMismatchError, apierr)

	cognito.confirmErr = nil
	require.Nil(t, svc.ConfirmSignup(&ConfirmSignupRequest{Email: "alice@example.com", Code: "123456"}))

	var user entity.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.True(t, user.EmailVerified)

	assert.Equal(t, apierror.UserAlreadyConfirmedError,
		svc.ConfirmSignup(&ConfirmSignupRequest{Email: "alice@example.com", Code: "123456"}))
}

func TestGetUser(t *testing.T) {
	svc, db := newUserService(t, &fakeCognito{})
	alice := seedUser(t, db, "alice")

	resp, apierr := svc.GetUser("@me", alice.SubUUID)
	require.Nil(t, apierr)
	assert.Equal(t, "alice", resp.Username)

	resp, apierr = svc.GetUser("9999", alice.SubUUID)
	assert.Nil(t, resp)
	assert.Equal(t, apierror.NotFoundError, apierr)

	resp, apierr = svc.GetUser("not-a-number", alice.SubUUID)
	assert.Nil(t, resp)
	require.NotNil(t, apierr)
	assert.Equal(t, 400, apierr.Code())
}
