package awsdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/ikusi/acta-ui/internal/acta"
)

const DefaultPresignTTL = time.Hour

var ErrNoBucket = errors.New("document bucket is not configured")

type HeadObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type PresignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Documents looks up generated actas in the bucket. Keys are
// <prefix><projectID>.<format>.
type Documents struct {
	head    HeadObjectAPI
	presign PresignAPI
	bucket  string
	prefix  string
	ttl     time.Duration
}

func NewDocuments(head HeadObjectAPI, presign PresignAPI, bucket, prefix string, ttl time.Duration) *Documents {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Documents{head: head, presign: presign, bucket: bucket, prefix: prefix, ttl: ttl}
}

func (d *Documents) Key(projectID string, format acta.Format) string {
	return d.prefix + projectID + "." + string(format)
}

// Exists reports whether the document has been generated.
func (d *Documents) Exists(ctx context.Context, projectID string, format acta.Format) (acta.DocumentStatus, error) {
	key := d.Key(projectID, format)
	status := acta.DocumentStatus{ProjectID: projectID, Format: format, Key: key}
	if d.bucket == "" {
		return status, ErrNoBucket
	}
	if err := format.Validate(); err != nil {
		return status, err
	}

	out, err := d.head.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return status, nil
		}
		return status, fmt.Errorf("head s3://%s/%s: %w", d.bucket, key, err)
	}

	status.Available = true
	status.Size = aws.ToInt64(out.ContentLength)
	if out.LastModified != nil {
		status.LastModified = out.LastModified.UTC().Format(time.RFC3339)
	}
	return status, nil
}

// PresignURL returns a temporary GET URL for the document.
func (d *Documents) PresignURL(ctx context.Context, projectID string, format acta.Format) (string, error) {
	if d.bucket == "" {
		return "", ErrNoBucket
	}
	if err := format.Validate(); err != nil {
		return "", err
	}
	req, err := d.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.Key(projectID, format)),
	}, s3.WithPresignExpires(d.ttl))
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
