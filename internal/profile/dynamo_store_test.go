package profile

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

// fakeDynamo implements dynamoAPI over a map.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	puts  int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts++
	key := in.Item["userId"].(*types.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["userId"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func TestDynamoStoreFirstAccessCreates(t *testing.T) {
	client := newFakeDynamo()
	store := NewDynamoStore(client, "user_profiles", logging.Default())

	p, err := store.Get(context.Background(), "U123")
	require.NoError(t, err)
	assert.Equal(t, "U123", p.UserID)
	assert.Equal(t, StateNew, p.State)
	assert.Equal(t, 1, client.puts, "default profile should be persisted")
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	client := newFakeDynamo()
	store := NewDynamoStore(client, "user_profiles", logging.Default())
	ctx := context.Background()

	p, err := store.Get(ctx, "U123")
	require.NoError(t, err)

	p.Name = "王小美"
	p.Phone = "0912345678"
	p.State = StateAskDate
	p.SelectedService = "染髮"
	p.SetPendingDate("2025-05-20")
	require.NoError(t, store.Update(ctx, p))

	loaded, err := store.Get(ctx, "U123")
	require.NoError(t, err)
	assert.Equal(t, "王小美", loaded.Name)
	assert.Equal(t, "0912345678", loaded.Phone)
	assert.Equal(t, StateAskDate, loaded.State)
	assert.Equal(t, "染髮", loaded.SelectedService)
	assert.Equal(t, "2025-05-20", loaded.PendingDate)
}

func TestDynamoStoreRejectsEmptyUserID(t *testing.T) {
	store := NewDynamoStore(newFakeDynamo(), "user_profiles", logging.Default())

	_, err := store.Get(context.Background(), "")
	assert.Error(t, err)

	err = store.Update(context.Background(), &Profile{})
	assert.Error(t, err)
}

func TestProfileAttributeRoundTrip(t *testing.T) {
	p := NewProfile("U123")
	p.Name = "王小美"
	p.FavoriteServices = []string{"剪髮"}

	item, err := attributevalue.MarshalMap(p)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, p.UserID, decoded.UserID)
	assert.Equal(t, p.Name, decoded.Name)
	assert.Equal(t, p.FavoriteServices, decoded.FavoriteServices)
}
