package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"welcome-bot/internal/domain"
)

const (
	skMeta      = "META#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client wraps a DynamoDB table as a per-conversation turn counter store.
// Get reads the persisted counter, Set buffers the new value, Commit flushes
// buffered values in one transaction. Read-then-write on the same
// conversation is not atomic across concurrent turns; the mutex only keeps
// the buffer memory-safe.
type Client struct {
	api       dynamodbAPI
	tableName string

	mu      sync.Mutex
	pending map[string]int
}

// New creates a new counter store Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if tableName == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{
		api:       api,
		tableName: tableName,
		pending:   make(map[string]int),
	}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(conversationID string) string {
	return "CONV#" + conversationID
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// Get returns the persisted turn count for a conversation, 0 when absent.
func (c *Client) Get(ctx context.Context, conversationID string) (int, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: convPK(conversationID)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("repository: Get get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return 0, nil
	}

	turns, err := intAttr(out.Item, "turns")
	if err != nil {
		return 0, fmt.Errorf("repository: Get decode turns: %w", err)
	}
	return turns, nil
}

// Set buffers the new counter value until Commit.
func (c *Client) Set(_ context.Context, conversationID string, turns int) error {
	if conversationID == "" {
		return errors.New("repository: Set: conversation id is required")
	}
	c.mu.Lock()
	c.pending[conversationID] = turns
	c.mu.Unlock()
	return nil
}

// Commit writes all buffered counters in one transaction and clears the
// buffer. A no-op when nothing was set.
func (c *Client) Commit(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]int)
	c.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(pending))
	for conversationID, turns := range pending {
		counter := NewConversationCounter(conversationID, turns)
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(c.tableName),
				Item:      counterItem(counter),
			},
		})
	}

	if _, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	}); err != nil {
		return fmt.Errorf("repository: Commit: %w", err)
	}
	return nil
}

// NewConversationCounter constructs a counter record with timestamps set.
func NewConversationCounter(conversationID string, turns int) domain.ConversationCounter {
	return domain.ConversationCounter{
		ConversationID: conversationID,
		Turns:          turns,
		LastActivity:   time.Now().UTC().Format(time.RFC3339),
		TTL:            ttlValue(),
	}
}

func counterItem(counter domain.ConversationCounter) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: convPK(counter.ConversationID)},
		"SK":             &types.AttributeValueMemberS{Value: skMeta},
		"conversationId": &types.AttributeValueMemberS{Value: counter.ConversationID},
		"lastActivity":   &types.AttributeValueMemberS{Value: counter.LastActivity},
		"turns":          &types.AttributeValueMemberN{Value: strconv.Itoa(counter.Turns)},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(counter.TTL, 10)},
	}
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
