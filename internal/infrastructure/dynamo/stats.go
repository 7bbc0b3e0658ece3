package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/regportal-api/internal/domain"
)

// StatsRepo holds cached aggregates. PK: stat_id
type StatsRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewStatsRepo(client *dynamodb.Client, tableName string) *StatsRepo {
	return &StatsRepo{client: client, tableName: tableName}
}

func (r *StatsRepo) Put(ctx context.Context, s *domain.LiveStats) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *StatsRepo) Get(ctx context.Context, statID string) (*domain.LiveStats, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldStatID, statID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("stats %s not found: %w", statID, domain.ErrNotFound)
	}
	var s domain.LiveStats
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
