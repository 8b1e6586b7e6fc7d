package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/marque-api/internal/domain"
)

// SessionStore keeps operator sessions in a DynamoDB table keyed by session_token.
// Items carry expires_at as a TTL attribute so DynamoDB reaps them eventually.
type SessionStore struct {
	client    API
	tableName string
}

func NewSessionStore(client API, tableName string) *SessionStore {
	return &SessionStore{client: client, tableName: tableName}
}

func (r *SessionStore) Save(ctx context.Context, s *domain.Session) error {
	rec := *s
	rec.TTL = s.ExpiresAt.Unix()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(sessionKey, token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s.ExpiresAt = time.Unix(s.TTL, 0).UTC()
	return &s, nil
}

func (r *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(sessionKey, token),
	})
	return err
}
