package dynamo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/marque-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDynamo keeps items for a single table keyed by session_token.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	tables   map[string]bool
	ttlAttrs map[string]string
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		items:    make(map[string]map[string]types.AttributeValue),
		tables:   make(map[string]bool),
		ttlAttrs: make(map[string]string),
	}
}

func tokenOf(key map[string]types.AttributeValue) string {
	return key[sessionKey].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[tokenOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[tokenOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, tokenOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if f.tables[name] {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.tables[name] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) UpdateTimeToLive(_ context.Context, in *dynamodb.UpdateTimeToLiveInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttlAttrs[aws.ToString(in.TableName)] = aws.ToString(in.TimeToLiveSpecification.AttributeName)
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func TestSessionStore_RoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	store := NewSessionStore(fake, "admin_sessions")
	ctx := context.Background()
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := &domain.Session{Token: "tok", AdminID: 5, Market: domain.MarketKG, IssuedAt: issued, ExpiresAt: issued.Add(12 * time.Hour)}

	require.NoError(t, store.Save(ctx, sess))

	item := fake.items["tok"]
	require.NotNil(t, item)
	ttl, ok := item["expires_at"].(*types.AttributeValueMemberN)
	require.True(t, ok, "expires_at must be a number for DynamoDB TTL")
	assert.Equal(t, "1772398800", ttl.Value)
	market, ok := item["market"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "kg", market.Value)

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, int64(5), got.AdminID)
	assert.Equal(t, domain.MarketKG, got.Market)
	assert.True(t, got.IssuedAt.Equal(issued))
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))
}

func TestSessionStore_MissingAndDelete(t *testing.T) {
	store := NewSessionStore(newFakeDynamo(), "admin_sessions")
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, &domain.Session{Token: "tok", Market: domain.MarketUS, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "tok"))
	require.NoError(t, store.Delete(ctx, "tok"))
	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBootstrap_Idempotent(t *testing.T) {
	fake := newFakeDynamo()
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	Bootstrap(context.Background(), fake, "admin_sessions", log)
	Bootstrap(context.Background(), fake, "admin_sessions", log)

	assert.True(t, fake.tables["admin_sessions"])
	assert.Equal(t, "expires_at", fake.ttlAttrs["admin_sessions"])
	assert.Equal(t, 1, logs.FilterMessage("created table").Len())
	assert.Zero(t, logs.FilterMessage("could not create table").Len())
}
