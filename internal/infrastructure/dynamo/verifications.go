package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/auth-api-nosql/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// VerificationRepo manages pending one-time codes.
// PK: account_id, SK: channel. Put overwrites the previous code for the same
// account and channel; the expires_at TTL reaps records DynamoDB-side, and
// Get additionally filters expired items so a code past its window is absent
// even before the sweep runs.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.Verification) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, accountID, channel string) (*domain.Verification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("account_id", accountID, "channel", channel),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.Verification
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	// TTL deletion lags expiry by up to 48h; treat lagging items as gone.
	if v.ExpiresAt <= time.Now().Unix() {
		return nil, fmt.Errorf("verification expired: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (r *VerificationRepo) Delete(ctx context.Context, accountID, channel string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("account_id", accountID, "channel", channel),
	})
	return err
}
