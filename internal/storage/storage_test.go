package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func TestS3Store_Upload(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, S3Config{Bucket: "media", Region: "eu-west-1"})

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "media" &&
			aws.ToString(in.Key) == "recipes/a.jpg" &&
			aws.ToString(in.ContentType) == "image/jpeg" &&
			string(body) == "jpeg"
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, store.Upload(context.Background(), "recipes/a.jpg", []byte("jpeg"), "image/jpeg"))
	client.AssertExpectations(t)

	assert.ErrorIs(t, store.Upload(context.Background(), "", nil, ""), ErrEmptyKey)
}

func TestS3Store_DeleteWrapsError(t *testing.T) {
	client := new(mockS3)
	store := newS3Store(client, S3Config{Bucket: "media", Region: "eu-west-1"})
	boom := errors.New("boom")
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, boom)

	err := store.Delete(context.Background(), "recipes/a.jpg")
	assert.ErrorIs(t, err, boom)
}

func TestS3Store_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"aws", S3Config{Bucket: "media", Region: "eu-west-1"}, "https://media.s3.eu-west-1.amazonaws.com/recipes/a.jpg"},
		{"custom endpoint", S3Config{Bucket: "media", Endpoint: "http://minio:9000/"}, "http://minio:9000/media/recipes/a.jpg"},
		{"explicit public url", S3Config{Bucket: "media", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com/recipes/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Store(new(mockS3), tt.cfg)
			assert.Equal(t, tt.want, store.PublicURL("recipes/a.jpg"))
			assert.Empty(t, store.PublicURL(""))
		})
	}
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "recipes/a.jpg", []byte("jpeg"), "image/jpeg"))
	data, err := os.ReadFile(filepath.Join(root, "recipes", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "/media/recipes/a.jpg", store.PublicURL("recipes/a.jpg"))

	require.NoError(t, store.Delete(ctx, "recipes/a.jpg"))
	require.NoError(t, store.Delete(ctx, "recipes/a.jpg"), "deleting twice is fine")

	// Cleaned keys stay inside the root.
	require.NoError(t, store.Upload(ctx, "../../etc/x.jpg", []byte("x"), "image/jpeg"))
	_, err = os.Stat(filepath.Join(root, "etc", "x.jpg"))
	assert.NoError(t, err)
}
