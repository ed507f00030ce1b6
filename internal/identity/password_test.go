package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikusi/acta-ui/internal/session/sessiontest"
)

type fakeUserPool struct {
	last *cip.InitiateAuthInput
	out  *cip.InitiateAuthOutput
	err  error
}

func (f *fakeUserPool) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.last = in
	return f.out, f.err
}

func TestPasswordAuthenticator_SignIn(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	idToken := sessiontest.IDToken(t, "pm@example.com", exp)
	api := &fakeUserPool{out: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			IdToken:      aws.String(idToken),
			AccessToken:  aws.String("access"),
			RefreshToken: aws.String("refresh"),
			ExpiresIn:    3600,
		},
	}}

	tokens, err := NewPasswordAuthenticator(api, "client-1").SignIn(context.Background(), "pm@example.com", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.last.AuthFlow)
	assert.Equal(t, "client-1", aws.ToString(api.last.ClientId))
	assert.Equal(t, "pm@example.com", api.last.AuthParameters["USERNAME"])
	assert.Equal(t, "s3cret", api.last.AuthParameters["PASSWORD"])
	assert.Equal(t, idToken, tokens.IDToken)
	assert.Equal(t, "refresh", tokens.RefreshToken)
	assert.True(t, exp.Equal(tokens.ExpiresAt))
}

func TestPasswordAuthenticator_BadPassword(t *testing.T) {
	api := &fakeUserPool{err: &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}}

	_, err := NewPasswordAuthenticator(api, "client-1").SignIn(context.Background(), "pm@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordAuthenticator_OtherError(t *testing.T) {
	api := &fakeUserPool{err: errors.New("throttled")}

	_, err := NewPasswordAuthenticator(api, "client-1").SignIn(context.Background(), "pm@example.com", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordAuthenticator_Challenge(t *testing.T) {
	api := &fakeUserPool{out: &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}}

	_, err := NewPasswordAuthenticator(api, "client-1").SignIn(context.Background(), "pm@example.com", "x")
	assert.ErrorIs(t, err, ErrChallenge)
	assert.Contains(t, err.Error(), "NEW_PASSWORD_REQUIRED")
}

func TestPasswordAuthenticator_Refresh(t *testing.T) {
	idToken := sessiontest.IDToken(t, "pm@example.com", time.Now().Add(time.Hour))
	api := &fakeUserPool{out: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			IdToken:     aws.String(idToken),
			AccessToken: aws.String("access-2"),
		},
	}}

	tokens, err := NewPasswordAuthenticator(api, "client-1").Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)

	assert.Equal(t, types.AuthFlowTypeRefreshTokenAuth, api.last.AuthFlow)
	assert.Equal(t, "refresh-1", api.last.AuthParameters["REFRESH_TOKEN"])
	assert.Equal(t, "refresh-1", tokens.RefreshToken)
	assert.Equal(t, "access-2", tokens.AccessToken)
}

func TestPasswordAuthenticator_MissingIDToken(t *testing.T) {
	api := &fakeUserPool{out: &cip.InitiateAuthOutput{AuthenticationResult: &types.AuthenticationResultType{}}}

	_, err := NewPasswordAuthenticator(api, "client-1").SignIn(context.Background(), "pm@example.com", "x")
	assert.ErrorIs(t, err, ErrNoIDToken)
}
