// Package dynamo implements store.Store on Amazon DynamoDB.
package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

// API is the subset of *dynamodb.Client used by the adapter.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// NewClient loads the default AWS configuration for region and returns a
// DynamoDB client. A non-empty endpoint overrides the service endpoint
// (DynamoDB Local, LocalStack).
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*dynamodb.Options)
	if endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return dynamodb.NewFromConfig(cfg, opts...), nil
}

// Store hands out DynamoDB-backed tables sharing one client.
type Store struct {
	client API
	keys   map[string]string
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns a Store using client. keys maps table name to its partition key
// attribute; tables not listed default to "id".
func New(client API, keys map[string]string) *Store {
	return &Store{client: client, keys: keys}
}

func (s *Store) Table(name string) store.Table {
	key := s.keys[name]
	if key == "" {
		key = "id"
	}
	return &Table{client: s.client, name: name, key: key}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

// Table is a single DynamoDB table.
type Table struct {
	client API
	name   string
	key    string
}

var _ store.Table = (*Table)(nil)

func (t *Table) Name() string { return t.name }

func (t *Table) Put(ctx context.Context, item store.Item) error {
	if pk, ok := item[t.key].(string); !ok || pk == "" {
		return fmt.Errorf("put %s: missing key attribute %q", t.name, t.key)
	}
	av, err := attributevalue.MarshalMap(toDynamo(map[string]any(item)))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put item into %s: %w", t.name, err)
	}
	return nil
}

func (t *Table) Get(ctx context.Context, key store.Key) (store.Item, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.name),
		Key:       keyAttr(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get item from %s: %w", t.name, err)
	}
	if len(out.Item) == 0 {
		return nil, store.ErrNotFound
	}
	return unmarshalItem(out.Item)
}

func (t *Table) Update(ctx context.Context, key store.Key, path string, value any) (store.Item, error) {
	if store.SplitPath(path)[0] == t.key {
		return nil, fmt.Errorf("update %s: cannot update key attribute %q", t.name, t.key)
	}
	update := expression.Set(expression.Name(path), expression.Value(toDynamo(value)))
	cond := expression.AttributeExists(expression.Name(key.Attr))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	out, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       keyAttr(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update item in %s: %w", t.name, err)
	}
	return unmarshalItem(out.Attributes)
}

func (t *Table) Delete(ctx context.Context, key store.Key) (store.Item, error) {
	out, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(t.name),
		Key:          keyAttr(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("delete item from %s: %w", t.name, err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	return unmarshalItem(out.Attributes)
}

func (t *Table) Scan(ctx context.Context) ([]store.Item, error) {
	out, err := t.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(t.name),
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return unmarshalItems(out.Items)
}

func (t *Table) Query(ctx context.Context, index store.Index, value string) ([]store.Item, error) {
	keyCond := expression.Key(index.Attr).Equal(expression.Value(value))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	out, err := t.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		IndexName:                 aws.String(index.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s on %s: %w", t.name, index.Name, err)
	}
	return unmarshalItems(out.Items)
}

func keyAttr(key store.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		key.Attr: &types.AttributeValueMemberS{Value: key.Value},
	}
}

func unmarshalItem(av map[string]types.AttributeValue) (store.Item, error) {
	var m map[string]any
	err := attributevalue.UnmarshalMapWithOptions(av, &m, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	if m == nil {
		return store.Item{}, nil
	}
	return store.Item(fromDynamo(m).(map[string]any)), nil
}

func unmarshalItems(avs []map[string]types.AttributeValue) ([]store.Item, error) {
	items := make([]store.Item, 0, len(avs))
	for _, av := range avs {
		item, err := unmarshalItem(av)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// toDynamo rewrites json.Number values as attributevalue.Number so they are
// stored as N attributes without a float64 round trip.
func toDynamo(v any) any {
	switch t := v.(type) {
	case json.Number:
		return attributevalue.Number(t)
	case store.Item:
		return toDynamo(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toDynamo(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toDynamo(e)
		}
		return out
	default:
		return v
	}
}

// fromDynamo is the inverse of toDynamo for decoded items.
func fromDynamo(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		return json.Number(t)
	case map[string]any:
		for k, e := range t {
			t[k] = fromDynamo(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = fromDynamo(e)
		}
		return t
	default:
		return v
	}
}
