package awsdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ikusi/acta-ui/internal/acta"
	"github.com/ikusi/acta-ui/internal/logging"
)

var ErrNoTable = errors.New("projects table is not configured")

// Projects scans the projects table.
type Projects struct {
	api   dynamodb.ScanAPIClient
	table string
}

func NewProjects(api dynamodb.ScanAPIClient, table string) *Projects {
	return &Projects{api: api, table: table}
}

func (p *Projects) All(ctx context.Context) ([]acta.Project, error) {
	return p.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(p.table)})
}

// ByManager returns the projects whose manager attribute matches email.
// Both attribute spellings found in the table are checked.
func (p *Projects) ByManager(ctx context.Context, email string) ([]acta.Project, error) {
	return p.scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(p.table),
		FilterExpression: aws.String("#pm = :e OR #project_manager = :e"),
		ExpressionAttributeNames: map[string]string{
			"#pm":              "pm",
			"#project_manager": "project_manager",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
}

func (p *Projects) scan(ctx context.Context, in *dynamodb.ScanInput) ([]acta.Project, error) {
	if p.table == "" {
		return nil, ErrNoTable
	}
	logger := logging.NewLogger(ctx)

	var projects []acta.Project
	pages := dynamodb.NewScanPaginator(p.api, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			logger.LogError("scan_projects", err)
			return nil, fmt.Errorf("scan %s: %w", p.table, err)
		}
		for _, item := range page.Items {
			project, err := decodeProject(item)
			if err != nil {
				logger.LogWarnf("scan_projects", "skipping item: %v", err)
				continue
			}
			projects = append(projects, project)
		}
	}
	logger.LogInfof("scan_projects", "scanned table=%s projects=%d", p.table, len(projects))
	return projects, nil
}

// decodeProject runs the item through the same decoding as API responses
// so field aliases are handled once.
func decodeProject(item map[string]types.AttributeValue) (acta.Project, error) {
	plain, err := Flatten(item)
	if err != nil {
		return acta.Project{}, err
	}
	data, err := json.Marshal(plain)
	if err != nil {
		return acta.Project{}, err
	}
	var p acta.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return acta.Project{}, err
	}
	return p, nil
}

// Flatten converts an item to plain Go values. Numbers are kept as
// attributevalue.Number so large ids keep every digit.
func Flatten(item map[string]types.AttributeValue) (map[string]any, error) {
	var out map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &out, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return out, nil
}
