package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ci "github.com/aws/aws-sdk-go-v2/service/cognitoidentity"

	"github.com/ikusi/acta-ui/internal/session"
)

// IdentityPoolAPI is the part of the identity-pool client used here.
type IdentityPoolAPI interface {
	GetId(ctx context.Context, in *ci.GetIdInput, optFns ...func(*ci.Options)) (*ci.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, in *ci.GetCredentialsForIdentityInput, optFns ...func(*ci.Options)) (*ci.GetCredentialsForIdentityOutput, error)
}

// PoolCredentials is an aws.CredentialsProvider backed by the identity
// pool. With a cached ID token the identity is authenticated through the
// user pool; without one an unauthenticated identity is requested.
type PoolCredentials struct {
	api      IdentityPoolAPI
	poolID   string
	provider string
	store    session.Store
}

func NewPoolCredentials(api IdentityPoolAPI, identityPoolID, region, userPoolID string, store session.Store) *PoolCredentials {
	return &PoolCredentials{
		api:      api,
		poolID:   identityPoolID,
		provider: LoginProvider(region, userPoolID),
		store:    store,
	}
}

// LoginProvider is the Logins map key for a user pool.
func LoginProvider(region, userPoolID string) string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}

// Cached wraps p so credentials are reused until shortly before expiry.
func (p *PoolCredentials) Cached() *aws.CredentialsCache {
	return aws.NewCredentialsCache(p)
}

func (p *PoolCredentials) Retrieve(ctx context.Context) (aws.Credentials, error) {
	var logins map[string]string
	if token, ok := session.IDToken(ctx, p.store); ok {
		logins = map[string]string{p.provider: token}
	}

	id, err := p.api.GetId(ctx, &ci.GetIdInput{
		IdentityPoolId: aws.String(p.poolID),
		Logins:         logins,
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("get identity id: %w", err)
	}

	out, err := p.api.GetCredentialsForIdentity(ctx, &ci.GetCredentialsForIdentityInput{
		IdentityId: id.IdentityId,
		Logins:     logins,
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("get credentials for identity: %w", err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("identity pool returned no credentials")
	}

	c := out.Credentials
	creds := aws.Credentials{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretKey),
		SessionToken:    aws.ToString(c.SessionToken),
		Source:          "CognitoIdentityPool",
	}
	if c.Expiration != nil {
		creds.CanExpire = true
		creds.Expires = *c.Expiration
	}
	return creds, nil
}
