// Package identity signs users in against the Cognito user pool and trades
// their identity token for temporary AWS credentials.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrChallenge          = errors.New("sign-in challenge not supported")
	ErrNoIDToken          = errors.New("identity provider returned no id token")
)

// NewConfig loads an AWS config for the identity endpoints. Both the
// user-pool auth flows and the identity-pool exchange are unauthenticated
// calls, so no local credentials are looked up.
func NewConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
