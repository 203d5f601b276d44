package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/vidyasetu/auth-api/internal/domain"
)

// OtpRepo manages issued OTP sessions.
// PK: phone (E.164). ExpiresAt doubles as the DynamoDB TTL attribute.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, s *domain.OtpSession) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal otp session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OtpRepo) Get(ctx context.Context, phone string) (*domain.OtpSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp session not found: %w", domain.ErrNotFound)
	}
	var s domain.OtpSession
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *OtpRepo) Delete(ctx context.Context, phone string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	return err
}
