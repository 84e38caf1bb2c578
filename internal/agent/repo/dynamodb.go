package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	attrPK   = "PK"
	attrBlob = "blob"
	attrTTL  = "ttl"
	attrAt   = "updatedAt"
)

// dynamodbAPI is the subset of the DynamoDB client used by DynamoStore.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps one item per key. Expiry relies on the table's TTL
// attribute, so expired items may be served until DynamoDB sweeps them;
// Load filters them out.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repo: dynamodb api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repo: dynamodb table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName, now: time.Now}, nil
}

func (d *DynamoStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load state from dynamodb")
		return nil, false, errx.WrapDynamo(err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, false, nil
	}

	if expires, ok, err := numAttr(out.Item, attrTTL); err != nil {
		return nil, false, fmt.Errorf("repo: decode ttl for %q: %w", key, err)
	} else if ok && expires > 0 && d.now().Unix() >= expires {
		return nil, false, nil
	}

	v, ok := out.Item[attrBlob]
	if !ok {
		return nil, false, fmt.Errorf("repo: item %q has no %s attribute", key, attrBlob)
	}
	b, ok := v.(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, fmt.Errorf("repo: attribute %s of %q is not binary", attrBlob, key)
	}
	return b.Value, true, nil
}

func (d *DynamoStore) Save(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	now := d.now().UTC()
	item := map[string]types.AttributeValue{
		attrPK:   &types.AttributeValueMemberS{Value: key},
		attrBlob: &types.AttributeValueMemberB{Value: blob},
		attrAt:   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
	}
	if ttl > 0 {
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttl).Unix(), 10)}
	}

	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save state to dynamodb")
		return errx.WrapDynamo(err)
	}
	return nil
}

func numAttr(item map[string]types.AttributeValue, key string) (int64, bool, error) {
	v, ok := item[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, false, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return parsed, true, nil
}

var _ Store = (*DynamoStore)(nil)
