package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"derivative-service/ddd/domain/gateway"
)

// KeyAttribute 元数据条目的分区键
const KeyAttribute = "id"

// ErrRecordNotFound 条目不存在时不会新建
var ErrRecordNotFound = errors.New("metadata item not found")

// UpdateItemAPI is the DynamoDB call the store needs.
type UpdateItemAPI interface {
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// MetadataStore DynamoDB 实现的元数据网关
type MetadataStore struct {
	client UpdateItemAPI
	table  string
}

var _ gateway.MetadataGateway = (*MetadataStore)(nil)

func NewMetadataStore(client UpdateItemAPI, table string) *MetadataStore {
	return &MetadataStore{client: client, table: table}
}

func (s *MetadataStore) UpdateDerivatives(ctx context.Context, correlationID string, update gateway.MetadataUpdate) error {
	in, err := s.buildUpdate(correlationID, update)
	if err != nil {
		return err
	}
	if _, err := s.client.UpdateItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: id=%s", ErrRecordNotFound, correlationID)
		}
		return fmt.Errorf("update item id=%s: %w", correlationID, err)
	}
	return nil
}

// buildUpdate 生成 SET 表达式，未发布的 URL 不出现在表达式里
func (s *MetadataStore) buildUpdate(id string, u gateway.MetadataUpdate) (*dynamodb.UpdateItemInput, error) {
	fields := map[string]interface{}{
		"previewGenerated": u.PreviewGenerated,
		"updatedAt":        u.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if u.PreviewURL != "" {
		fields["previewUrl"] = u.PreviewURL
	}
	if u.ThumbnailURL != "" {
		fields["thumbnailUrl"] = u.ThumbnailURL
	}
	if u.HLSURL != "" {
		fields["hlsUrl"] = u.HLSURL
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	exprNames := map[string]string{"#pk": KeyAttribute}
	exprValues := make(map[string]types.AttributeValue, len(fields))
	sets := make([]string, 0, len(fields))
	for i, name := range names {
		av, err := attributevalue.Marshal(fields[name])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		exprNames[n] = name
		exprValues[v] = av
		sets = append(sets, n+" = "+v)
	}

	return &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			KeyAttribute: &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}, nil
}
