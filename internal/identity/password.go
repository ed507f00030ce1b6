package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/ikusi/acta-ui/internal/logging"
	"github.com/ikusi/acta-ui/internal/session"
)

// InitiateAuthAPI is the part of the user-pool client used here.
type InitiateAuthAPI interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

// PasswordAuthenticator signs in with the USER_PASSWORD_AUTH flow.
type PasswordAuthenticator struct {
	api      InitiateAuthAPI
	clientID string
}

func NewPasswordAuthenticator(api InitiateAuthAPI, clientID string) *PasswordAuthenticator {
	return &PasswordAuthenticator{api: api, clientID: clientID}
}

// SignIn authenticates username/password and returns the issued tokens.
func (a *PasswordAuthenticator) SignIn(ctx context.Context, username, password string) (session.Tokens, error) {
	logger := logging.NewLogger(ctx)
	out, err := a.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(a.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		logger.LogError("sign_in", err)
		return session.Tokens{}, mapAuthError(err)
	}

	tokens, err := tokensFromResult(out, "")
	if err != nil {
		logger.LogError("sign_in", err)
		return session.Tokens{}, err
	}
	logger.LogInfof("sign_in", "signed in username=%s", username)
	return tokens, nil
}

// Refresh exchanges a refresh token for fresh ID and access tokens. The
// refresh token itself is carried over.
func (a *PasswordAuthenticator) Refresh(ctx context.Context, refreshToken string) (session.Tokens, error) {
	out, err := a.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(a.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		logging.NewLogger(ctx).LogError("refresh_session", err)
		return session.Tokens{}, mapAuthError(err)
	}
	return tokensFromResult(out, refreshToken)
}

func tokensFromResult(out *cip.InitiateAuthOutput, refreshToken string) (session.Tokens, error) {
	if out.ChallengeName != "" {
		return session.Tokens{}, fmt.Errorf("%w: %s", ErrChallenge, out.ChallengeName)
	}
	res := out.AuthenticationResult
	if res == nil || aws.ToString(res.IdToken) == "" {
		return session.Tokens{}, ErrNoIDToken
	}
	if rt := aws.ToString(res.RefreshToken); rt != "" {
		refreshToken = rt
	}
	return session.NewTokens(
		aws.ToString(res.IdToken),
		aws.ToString(res.AccessToken),
		refreshToken,
		time.Duration(res.ExpiresIn)*time.Second,
	)
}

func mapAuthError(err error) error {
	var notAuthorized *types.NotAuthorizedException
	var notFound *types.UserNotFoundException
	if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return fmt.Errorf("initiate auth: %w", err)
}
