package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivative-service/ddd/domain/gateway"
)

type fakeDynamo struct {
	in  *dynamodb.UpdateItemInput
	err error
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.in = in
	return &dynamodb.UpdateItemOutput{}, f.err
}

func TestMetadataStore_UpdateExpression(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewMetadataStore(fake, "posts")
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, store.UpdateDerivatives(context.Background(), "post-9", gateway.MetadataUpdate{
		PreviewURL: "https://h/b/p.mp4",
		HLSURL:     "https://h/b/hls/playlist.m3u8",
		UpdatedAt:  at,
	}))

	in := fake.in
	require.NotNil(t, in)
	assert.Equal(t, "posts", aws.ToString(in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "post-9"}, in.Key["id"])
	// 名称按字典序：hlsUrl previewGenerated previewUrl updatedAt
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2, #f3 = :v3", aws.ToString(in.UpdateExpression))
	assert.Equal(t, map[string]string{
		"#pk": "id",
		"#f0": "hlsUrl",
		"#f1": "previewGenerated",
		"#f2": "previewUrl",
		"#f3": "updatedAt",
	}, in.ExpressionAttributeNames)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, in.ExpressionAttributeValues[":v1"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-03-01T08:00:00Z"}, in.ExpressionAttributeValues[":v3"])
	assert.Len(t, in.ExpressionAttributeValues, 4)
}

func TestMetadataStore_MissingItem(t *testing.T) {
	fake := &fakeDynamo{err: &types.ConditionalCheckFailedException{Message: aws.String("nope")}}
	err := NewMetadataStore(fake, "posts").UpdateDerivatives(context.Background(), "x", gateway.MetadataUpdate{})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMetadataStore_ClientError(t *testing.T) {
	boom := errors.New("throttled")
	err := NewMetadataStore(&fakeDynamo{err: boom}, "posts").UpdateDerivatives(context.Background(), "x", gateway.MetadataUpdate{})
	assert.ErrorIs(t, err, boom)
}
