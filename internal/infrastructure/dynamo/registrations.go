package dynamo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/regportal-api/internal/domain"
)

// RegistrationRepo provides typed DynamoDB operations for the registrations table.
// PK: registration_id. GSIs: kind-created_at_key-index, email-index.
type RegistrationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRegistrationRepo(client *dynamodb.Client, tableName string) *RegistrationRepo {
	return &RegistrationRepo{client: client, tableName: tableName}
}

// createdAtKeyLayout is fixed width so lexical order on the GSI sort key
// matches time order. RFC3339Nano trims trailing zeros and does not.
const createdAtKeyLayout = "2006-01-02T15:04:05.000000000Z"

func createdAtKey(t time.Time) string {
	return t.UTC().Format(createdAtKeyLayout)
}

// registrationItem marshals reg and adds the created_at_key sort attribute.
func registrationItem(reg *domain.Registration) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(reg)
	if err != nil {
		return nil, fmt.Errorf("marshal registration: %w", err)
	}
	item[fieldCreatedAtKey] = &types.AttributeValueMemberS{Value: createdAtKey(reg.CreatedAt)}
	return item, nil
}

func (r *RegistrationRepo) Put(ctx context.Context, reg *domain.Registration) error {
	item, err := registrationItem(reg)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldRegistrationID},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("registration %s exists: %w", reg.RegistrationID, domain.ErrConflict)
	}
	return err
}

func (r *RegistrationRepo) Get(ctx context.Context, registrationID string) (*domain.Registration, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldRegistrationID, registrationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("registration not found: %w", domain.ErrNotFound)
	}
	var reg domain.Registration
	if err := attributevalue.UnmarshalMap(out.Item, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ExistsByEmail reports whether any registration was submitted for email.
func (r *RegistrationRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return false, err
	}
	return len(out.Items) > 0, nil
}

// ListRecent returns registrations newest first from the kind-created_at_key GSI.
// cursor is an opaque token from a previous page; the returned cursor is
// empty when there are no more pages.
func (r *RegistrationRepo) ListRecent(ctx context.Context, limit int32, cursor string) ([]domain.Registration, string, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexKindCreatedAt),
		KeyConditionExpression:    aws.String("#k = :k"),
		ExpressionAttributeNames:  map[string]string{"#k": fieldKind},
		ExpressionAttributeValues: map[string]types.AttributeValue{":k": &types.AttributeValueMemberS{Value: domain.RegistrationKind}},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		key, err := decodeRegistrationCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrInvalidArgument)
		}
		input.ExclusiveStartKey = key
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	regs := make([]domain.Registration, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &regs); err != nil {
		return nil, "", err
	}
	return regs, encodeRegistrationCursor(out.LastEvaluatedKey), nil
}

// ScanStates returns the state of every registration. Only the state
// attribute is read.
func (r *RegistrationRepo) ScanStates(ctx context.Context) ([]string, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		ProjectionExpression:     aws.String("#s"),
		ExpressionAttributeNames: map[string]string{"#s": fieldState},
	})
	var states []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var rows []struct {
			State string `dynamodbav:"state"`
		}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, err
		}
		for _, row := range rows {
			states = append(states, row.State)
		}
	}
	return states, nil
}

// The GSI's LastEvaluatedKey carries the table key plus the index keys.
// kind is constant, so the cursor holds registration_id and created_at_key.
func encodeRegistrationCursor(key map[string]types.AttributeValue) string {
	id, ok1 := key[fieldRegistrationID].(*types.AttributeValueMemberS)
	created, ok2 := key[fieldCreatedAtKey].(*types.AttributeValueMemberS)
	if !ok1 || !ok2 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(id.Value + "|" + created.Value))
}

func decodeRegistrationCursor(cursor string) (map[string]types.AttributeValue, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, err
	}
	id, created, ok := strings.Cut(string(b), "|")
	if !ok || id == "" || created == "" {
		return nil, errors.New("malformed cursor")
	}
	return map[string]types.AttributeValue{
		fieldRegistrationID: &types.AttributeValueMemberS{Value: id},
		fieldCreatedAtKey:   &types.AttributeValueMemberS{Value: created},
		fieldKind:           &types.AttributeValueMemberS{Value: domain.RegistrationKind},
	}, nil
}
