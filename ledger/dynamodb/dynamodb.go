// Package dynamodb stores run ledger records in an Amazon DynamoDB table.
//
// Table schema:
//   - Partition key: run_id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name primegen-runs \
//	  --attribute-definitions AttributeName=run_id,AttributeType=S \
//	  --key-schema AttributeName=run_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/primegen/ledger"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var (
	// ErrDuplicateRun is returned when a record with the same run id exists.
	ErrDuplicateRun = errors.New("run already recorded")

	// ErrNotFound is returned by Get for an unknown run id.
	ErrNotFound = errors.New("run not found")
)

// Ledger implements ledger.Ledger on a DynamoDB table.
type Ledger struct {
	client Client
	table  string
}

var _ ledger.Ledger = (*Ledger)(nil)

// New creates a DynamoDB ledger.
func New(client Client, table string) *Ledger {
	return &Ledger{client: client, table: table}
}

// Append stores rec. Records are write-once per run id.
func (l *Ledger) Append(ctx context.Context, rec ledger.Record) error {
	item := map[string]types.AttributeValue{
		"run_id":      &types.AttributeValueMemberS{Value: rec.RunID},
		"store_path":  &types.AttributeValueMemberS{Value: rec.StorePath},
		"state":       &types.AttributeValueMemberS{Value: rec.State},
		"count":       number(rec.Count),
		"found":       number(rec.Found),
		"max_prime":   number(rec.MaxPrime),
		"sum":         number(rec.Sum),
		"average":     &types.AttributeValueMemberN{Value: strconv.FormatFloat(rec.Average, 'f', -1, 64)},
		"started_at":  &types.AttributeValueMemberS{Value: rec.StartedAt.UTC().Format(time.RFC3339Nano)},
		"duration_ns": &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(rec.Duration), 10)},
	}
	if rec.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: rec.Error}
	}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(run_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", ErrDuplicateRun, rec.RunID)
		}
		return fmt.Errorf("failed to record run in DynamoDB: %w", err)
	}
	return nil
}

// Get loads the record of runID.
func (l *Ledger) Get(ctx context.Context, runID string) (ledger.Record, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            map[string]types.AttributeValue{"run_id": &types.AttributeValueMemberS{Value: runID}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ledger.Record{}, err
	}
	if out.Item == nil {
		return ledger.Record{}, ErrNotFound
	}
	return decode(out.Item)
}

// Close is a no-op; the client is owned by the caller.
func (l *Ledger) Close() error { return nil }

func number(v uint64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatUint(v, 10)}
}

func decode(item map[string]types.AttributeValue) (ledger.Record, error) {
	var rec ledger.Record
	var errs []error

	str := func(key string) string {
		if v, ok := item[key].(*types.AttributeValueMemberS); ok {
			return v.Value
		}
		return ""
	}
	num := func(key string) string {
		if v, ok := item[key].(*types.AttributeValueMemberN); ok {
			return v.Value
		}
		errs = append(errs, fmt.Errorf("attribute %s missing", key))
		return "0"
	}
	parseUint := func(key string) uint64 {
		v, err := strconv.ParseUint(num(key), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("attribute %s: %w", key, err))
		}
		return v
	}

	rec.RunID = str("run_id")
	rec.StorePath = str("store_path")
	rec.State = str("state")
	rec.Error = str("error")
	rec.Count = parseUint("count")
	rec.Found = parseUint("found")
	rec.MaxPrime = parseUint("max_prime")
	rec.Sum = parseUint("sum")

	avg, err := strconv.ParseFloat(num("average"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("attribute average: %w", err))
	}
	rec.Average = avg

	dur, err := strconv.ParseInt(num("duration_ns"), 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("attribute duration_ns: %w", err))
	}
	rec.Duration = time.Duration(dur)

	if s := str("started_at"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("attribute started_at: %w", err))
		}
		rec.StartedAt = t
	}

	if err := errors.Join(errs...); err != nil {
		return rec, fmt.Errorf("decode run %s: %w", rec.RunID, err)
	}
	return rec, nil
}
