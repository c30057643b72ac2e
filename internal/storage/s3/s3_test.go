package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func TestGetObject(t *testing.T) {
	client := new(mockClient)
	b := NewWithClient(client, "bucket")

	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "xenium_cache.json"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(`{"file_count":1}`)),
	}, nil).Once()

	rc, err := b.GetObject(context.Background(), "xenium_cache.json")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, `{"file_count":1}`, string(data))
	client.AssertExpectations(t)
}

func TestGetObjectNotFound(t *testing.T) {
	client := new(mockClient)
	b := NewWithClient(client, "bucket")

	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	_, err := b.GetObject(context.Background(), "missing.json")
	require.Error(t, err)
	var nsk *types.NoSuchKey
	assert.True(t, errors.As(err, &nsk))
}

func TestPutObjectSinglePart(t *testing.T) {
	client := new(mockClient)
	b := NewWithClient(client, "bucket")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "bucket" && *in.Key == "sopa/xenium_cache.json" &&
			aws.ToString(in.ContentType) == "application/json"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	body := `{"file_count":0,"files":[]}`
	err := b.PutObject(context.Background(), "sopa/xenium_cache.json", strings.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestListObjectsPagination(t *testing.T) {
	client := new(mockClient)
	b := NewWithClient(client, "bucket")
	modified := time.Date(2025, 2, 4, 9, 20, 0, 0, time.UTC)

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && *in.Prefix == "sopa/"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents: []types.Object{
			{Key: aws.String("sopa/a/experiment.xenium"), Size: aws.Int64(10), LastModified: &modified},
		},
	}, nil).Once()

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken != nil && *in.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents: []types.Object{
			{Key: aws.String("sopa/b/experiment.xenium"), Size: aws.Int64(20)},
		},
	}, nil).Once()

	var keys []string
	var sizes []int64
	err := b.ListObjects(context.Background(), "sopa/", func(key string, size int64, mod time.Time) error {
		keys = append(keys, key)
		sizes = append(sizes, size)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sopa/a/experiment.xenium", "sopa/b/experiment.xenium"}, keys)
	assert.Equal(t, []int64{10, 20}, sizes)
}

func TestListObjectsStopsOnCallbackError(t *testing.T) {
	client := new(mockClient)
	b := NewWithClient(client, "bucket")
	stop := errors.New("stop")

	client.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("a")}, {Key: aws.String("b")}},
	}, nil).Once()

	calls := 0
	err := b.ListObjects(context.Background(), "", func(string, int64, time.Time) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
