package awsdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikusi/acta-ui/internal/acta"
)

type fakeHead struct {
	out *s3.HeadObjectOutput
	err error
	in  *s3.HeadObjectInput
}

func (f *fakeHead) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.in = in
	return f.out, f.err
}

type fakePresign struct {
	in      *s3.GetObjectInput
	expires time.Duration
}

func (f *fakePresign) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.in = in
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=x"}, nil
}

func TestDocuments_ExistsFound(t *testing.T) {
	modified := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	head := &fakeHead{out: &s3.HeadObjectOutput{ContentLength: aws.Int64(2048), LastModified: &modified}}
	docs := NewDocuments(head, &fakePresign{}, "projectplace-dv-2025-x9a7b", "acta/", 0)

	status, err := docs.Exists(context.Background(), "1000000049842296", acta.FormatPDF)
	require.NoError(t, err)

	assert.True(t, status.Available)
	assert.Equal(t, "acta/1000000049842296.pdf", status.Key)
	assert.Equal(t, int64(2048), status.Size)
	assert.Equal(t, "2025-06-01T12:00:00Z", status.LastModified)
	assert.Equal(t, "projectplace-dv-2025-x9a7b", aws.ToString(head.in.Bucket))
}

func TestDocuments_ExistsNotFound(t *testing.T) {
	cases := map[string]error{
		"typed":   &types.NotFound{},
		"no such": &types.NoSuchKey{},
		"generic": &smithy.GenericAPIError{Code: "NotFound"},
	}
	for name, notFound := range cases {
		t.Run(name, func(t *testing.T) {
			docs := NewDocuments(&fakeHead{err: notFound}, &fakePresign{}, "b", "acta/", 0)
			status, err := docs.Exists(context.Background(), "7", acta.FormatDOCX)
			require.NoError(t, err)
			assert.False(t, status.Available)
			assert.Equal(t, "acta/7.docx", status.Key)
		})
	}
}

func TestDocuments_ExistsOtherError(t *testing.T) {
	denied := &smithy.GenericAPIError{Code: "AccessDenied"}
	docs := NewDocuments(&fakeHead{err: denied}, &fakePresign{}, "b", "", 0)

	_, err := docs.Exists(context.Background(), "7", acta.FormatPDF)
	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "AccessDenied", apiErr.ErrorCode())
}

func TestDocuments_Validation(t *testing.T) {
	docs := NewDocuments(&fakeHead{}, &fakePresign{}, "", "", 0)
	_, err := docs.Exists(context.Background(), "7", acta.FormatPDF)
	assert.ErrorIs(t, err, ErrNoBucket)

	docs = NewDocuments(&fakeHead{}, &fakePresign{}, "b", "", 0)
	_, err = docs.PresignURL(context.Background(), "7", acta.Format("xlsx"))
	assert.ErrorIs(t, err, acta.ErrInvalidFormat)
}

func TestDocuments_PresignURL(t *testing.T) {
	presign := &fakePresign{}
	docs := NewDocuments(&fakeHead{}, presign, "b", "acta/", 15*time.Minute)

	url, err := docs.PresignURL(context.Background(), "7", acta.FormatDOCX)
	require.NoError(t, err)

	assert.Contains(t, url, "acta/7.docx")
	assert.Equal(t, 15*time.Minute, presign.expires)
	assert.Equal(t, "b", aws.ToString(presign.in.Bucket))
}

func TestNewDocuments_DefaultTTL(t *testing.T) {
	presign := &fakePresign{}
	_, err := NewDocuments(&fakeHead{}, presign, "b", "", 0).PresignURL(context.Background(), "1", acta.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, DefaultPresignTTL, presign.expires)
}
