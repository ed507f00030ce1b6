// Package awsdata reads the projects table and the document bucket
// directly, for operators holding AWS credentials.
package awsdata

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ikusi/acta-ui/config"
)

// LoadConfig resolves credentials the usual way (environment, shared
// profile, instance role). profile may be empty.
func LoadConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// New builds both readers from the storage settings.
func New(ctx context.Context, sc config.StorageConfig, profile string) (*Projects, *Documents, error) {
	cfg, err := LoadConfig(ctx, sc.Region, profile)
	if err != nil {
		return nil, nil, err
	}
	projects := NewProjects(dynamodb.NewFromConfig(cfg), sc.ProjectsTable)
	client := s3.NewFromConfig(cfg)
	docs := NewDocuments(client, s3.NewPresignClient(client), sc.Bucket, sc.DocumentPrefix, sc.PresignTTL)
	return projects, docs, nil
}
