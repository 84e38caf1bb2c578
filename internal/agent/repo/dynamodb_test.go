package repo

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	errx "github.com/ivy-assistant/server/internal/core/error"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewDynamoStore(t *testing.T, db *fakeDynamo) *DynamoStore {
	t.Helper()
	s, err := NewDynamoStore(db, "test-table")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return s
}

func TestNewDynamoStore_Validation(t *testing.T) {
	_, err := NewDynamoStore(nil, "t")
	require.Error(t, err)
	_, err = NewDynamoStore(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestDynamoStore_LoadMissing(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	s := mustNewDynamoStore(t, db)

	_, ok, err := s.Load(context.Background(), "conversation:a:state")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "test-table", *db.lastGetInput.TableName)
	require.True(t, *db.lastGetInput.ConsistentRead)
}

func TestDynamoStore_LoadBlob(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: "k"},
		"blob": &types.AttributeValueMemberB{Value: []byte("payload")},
		"ttl":  &types.AttributeValueMemberN{Value: "1700000100"},
	}}}
	s := mustNewDynamoStore(t, db)

	b, ok, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "payload", string(b))
}

func TestDynamoStore_LoadSkipsExpired(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: "k"},
		"blob": &types.AttributeValueMemberB{Value: []byte("old")},
		"ttl":  &types.AttributeValueMemberN{Value: "1699999999"},
	}}}
	s := mustNewDynamoStore(t, db)

	_, ok, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDynamoStore_LoadRejectsWrongBlobType(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: "k"},
		"blob": &types.AttributeValueMemberS{Value: "not-binary"},
	}}}
	s := mustNewDynamoStore(t, db)

	_, _, err := s.Load(context.Background(), "k")
	require.Error(t, err)
}

func TestDynamoStore_SaveWritesTTL(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewDynamoStore(t, db)

	require.NoError(t, s.Save(context.Background(), "k", []byte("v"), time.Hour))

	item := db.lastPutInput.Item
	require.Equal(t, "k", item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "v", string(item["blob"].(*types.AttributeValueMemberB).Value))
	require.Equal(t, strconv.FormatInt(1_700_000_000+3600, 10), item["ttl"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoStore_SaveWithoutTTL(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewDynamoStore(t, db)

	require.NoError(t, s.Save(context.Background(), "k", []byte("v"), 0))
	_, hasTTL := db.lastPutInput.Item["ttl"]
	require.False(t, hasTTL)
}

func TestDynamoStore_ErrorsAreWrapped(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("boom"), getErr: &types.ProvisionedThroughputExceededException{}}
	s := mustNewDynamoStore(t, db)

	err := s.Save(context.Background(), "k", []byte("v"), 0)
	require.Error(t, err)
	require.Equal(t, errx.KindStorage, errx.KindOf(err))

	_, _, err = s.Load(context.Background(), "k")
	require.Error(t, err)
	require.Equal(t, errx.KindStorage, errx.KindOf(err))
}
