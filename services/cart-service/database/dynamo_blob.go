package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used for cart blobs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type cartRecord struct {
	Owner     string `dynamodbav:"owner"`
	Blob      []byte `dynamodbav:"blob"`
	UpdatedAt string `dynamodbav:"updated_at"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

// DynamoBlobStorage stores one item per owner in a table keyed by "owner".
// expires_at is meant to be configured as the table's TTL attribute.
type DynamoBlobStorage struct {
	client DynamoAPI
	table  string
	ttl    time.Duration
}

func NewDynamoBlobStorage(client DynamoAPI, table string, ttl time.Duration) *DynamoBlobStorage {
	return &DynamoBlobStorage{client: client, table: table, ttl: ttl}
}

func (d *DynamoBlobStorage) key(owner string) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]string{"owner": owner})
}

func (d *DynamoBlobStorage) Get(ctx context.Context, owner string) ([]byte, error) {
	key, err := d.key(owner)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get cart: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var rec cartRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		// An item we cannot map is unreadable content, not a storage failure.
		return []byte("{}"), nil
	}
	return rec.Blob, nil
}

// Set writes the complete item with a single PutItem.
func (d *DynamoBlobStorage) Set(ctx context.Context, owner string, blob []byte) error {
	now := time.Now().UTC()
	rec := cartRecord{
		Owner:     owner,
		Blob:      blob,
		UpdatedAt: now.Format(time.RFC3339),
	}
	if d.ttl > 0 {
		rec.ExpiresAt = now.Add(d.ttl).Unix()
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return err
	}
	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put cart: %w", err)
	}
	return nil
}

func (d *DynamoBlobStorage) Delete(ctx context.Context, owner string) error {
	key, err := d.key(owner)
	if err != nil {
		return err
	}
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       key,
	}); err != nil {
		return fmt.Errorf("dynamodb delete cart: %w", err)
	}
	return nil
}
