package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vidyasetu/auth-api/internal/domain"
	"github.com/vidyasetu/auth-api/internal/pkg/id"
)

// IdentityRepo maps verified phone numbers to stable identity handles.
// PK: phone (E.164).
type IdentityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewIdentityRepo(client *dynamodb.Client, tableName string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName}
}

// GetOrCreate returns the identity link for the phone, allocating a fresh
// handle on first verification. The insert is conditional on absence, so two
// concurrent first verifications converge on a single handle: the loser of
// the race re-reads the winner's link.
func (r *IdentityRepo) GetOrCreate(ctx context.Context, phone string) (*domain.IdentityLink, error) {
	if link, err := r.get(ctx, phone); err == nil {
		return link, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	link := &domain.IdentityLink{
		Phone:      phone,
		IdentityID: id.New(),
		CreatedAt:  time.Now().Unix(),
	}
	item, err := attributevalue.MarshalMap(link)
	if err != nil {
		return nil, fmt.Errorf("marshal identity link: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(phone)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return r.get(ctx, phone)
		}
		return nil, err
	}
	return link, nil
}

func (r *IdentityRepo) get(ctx context.Context, phone string) (*domain.IdentityLink, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity link not found: %w", domain.ErrNotFound)
	}
	var link domain.IdentityLink
	if err := attributevalue.UnmarshalMap(out.Item, &link); err != nil {
		return nil, err
	}
	return &link, nil
}
