// Package dynamodb provides a DynamoDB-backed analysis.RecordStore. Records
// live in one table keyed by analysisId; updates are single UpdateItem calls
// so concurrent stages merge without read-modify-write races.
package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/groupmesh/analysis"
)

// Update aliases the analysis package type so callers importing only this
// package can build updates.
type Update = analysis.Update

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Options configure a Store.
type Options struct {
	// Now is swappable for deterministic timestamps in tests.
	Now func() time.Time
}

// Store persists analysis records in a DynamoDB table.
type Store struct {
	client    Client
	tableName string
	now       func() time.Time
}

// NewStore constructs a Store writing to tableName.
func NewStore(client Client, tableName string, optFns ...func(o *Options)) *Store {
	opts := Options{Now: time.Now}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		client:    client,
		tableName: tableName,
		now:       opts.Now,
	}
}

// Apply merges the non-empty fields of u into the item keyed by analysisID
// using a single UpdateItem expression. lastUpdatedTimestamp is stamped on
// every call.
func (s *Store) Apply(ctx context.Context, analysisID string, u Update) error {
	if analysisID == "" {
		return fmt.Errorf("analysis id must not be empty")
	}

	names := map[string]string{"#lastUpdated": "lastUpdatedTimestamp"}
	values := map[string]types.AttributeValue{
		":lu": &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
	}
	assignments := []string{"#lastUpdated = :lu"}

	set := func(name, attr, placeholder, value string) {
		if value == "" {
			return
		}
		names[name] = attr
		values[placeholder] = &types.AttributeValueMemberS{Value: value}
		assignments = append(assignments, name+" = "+placeholder)
	}

	set("#status", "status", ":s", u.Status)
	set("#errorDetails", "errorDetails", ":e", u.ErrorDetails)
	set("#s3Key", "s3Key", ":sk", u.S3Key)
	set("#fileName", "fileName", ":fn", u.FileName)
	set("#userId", "userId", ":uid", u.UserID)
	set("#userState", "userSelectedState", ":ust", u.UserSelectedState)

	sort.Strings(assignments)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"analysisId": &types.AttributeValueMemberS{Value: analysisID},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update analysis %s: %w", analysisID, err)
	}

	return nil
}
