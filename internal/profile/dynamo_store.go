package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore persists profiles to DynamoDB keyed by the channel user ID.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoStore {
	if client == nil {
		panic("profile: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("profile: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{client: client, tableName: tableName, logger: logger}
}

// Get loads the profile for userID, creating and persisting a default record
// on first access so the first Update never races an unseen user.
func (s *DynamoStore) Get(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, errors.New("profile: userID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("profile: failed to fetch %s: %w", userID, err)
	}

	if out.Item == nil {
		p := NewProfile(userID)
		if err := s.put(ctx, p, true); err != nil {
			return nil, err
		}
		s.logger.Info("created new profile", "user_id", userID)
		return p, nil
	}

	var p Profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, fmt.Errorf("profile: failed to decode %s: %w", userID, err)
	}
	return &p, nil
}

// Update overwrites the stored profile.
func (s *DynamoStore) Update(ctx context.Context, p *Profile) error {
	if p == nil || p.UserID == "" {
		return errors.New("profile: profile with userID required")
	}
	p.UpdatedAt = time.Now().UTC()
	return s.put(ctx, p, false)
}

func (s *DynamoStore) put(ctx context.Context, p *Profile, createOnly bool) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("profile: failed to marshal %s: %w", p.UserID, err)
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if createOnly {
		input.ConditionExpression = aws.String("attribute_not_exists(userId)")
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("profile: failed to persist %s: %w", p.UserID, err)
	}
	return nil
}
