package apiclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// requestSigner signs gateway requests with temporary IAM credentials.
type requestSigner struct {
	creds  aws.CredentialsProvider
	region string
	signer *v4.Signer
	now    func() time.Time
}

func newRequestSigner(creds aws.CredentialsProvider, region string) *requestSigner {
	if creds == nil {
		return nil
	}
	return &requestSigner{
		creds:  creds,
		region: region,
		signer: v4.NewSigner(),
		now:    time.Now,
	}
}

func (s *requestSigner) sign(ctx context.Context, req *http.Request, body []byte) error {
	creds, err := s.creds.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieve credentials: %w", err)
	}
	sum := sha256.Sum256(body)
	if err := s.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, s.region, s.now()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}
