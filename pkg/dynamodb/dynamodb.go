package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Config selects the DynamoDB table used for dialog state.
type Config struct {
	Table    string `split_words:"true" default:"ivy-state"`
	Region   string `split_words:"true"`
	Endpoint string `split_words:"true"`
}

// New loads the default AWS credential chain and returns a DynamoDB client.
// Endpoint overrides the service URL (dynamodb-local, localstack).
func (c *Config) New(ctx context.Context) (*dynamodb.Client, error) {
	if strings.TrimSpace(c.Table) == "" {
		return nil, fmt.Errorf("dynamodb table name is empty")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}
