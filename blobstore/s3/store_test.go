package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize/blobstore"
)

func keyIs(key string) func(*s3.HeadObjectInput) bool {
	return func(in *s3.HeadObjectInput) bool { return aws.ToString(in.Key) == key }
}

func TestStoreOpenReadAt(t *testing.T) {
	ctx := context.Background()
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	client.On("HeadObject", mock.Anything, mock.MatchedBy(keyIs("root/data/0"))).
		Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(10)}, nil)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=2-5"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("2345"))}, nil)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("89"))}, nil)

	blob, err := store.Open(ctx, "data/0")
	require.NoError(t, err)
	defer func() { _ = blob.Close() }()
	assert.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "2345", string(buf))

	// Short read at the tail reports EOF.
	n, err = blob.ReadAt(ctx, buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	rc, err := blob.ReadRange(ctx, 8, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "89", string(got))

	client.AssertExpectations(t)
}

func TestStoreOpenNotFound(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "")

	client.On("HeadObject", mock.Anything, mock.Anything).Return(nil, &types.NotFound{})

	_, err := store.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStorePutSendsChecksum(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "root/CURRENT" &&
			aws.ToString(in.ChecksumCRC32C) == "4waSgw==" &&
			aws.ToInt64(in.ContentLength) == 9
	})).Return(&s3.PutObjectOutput{}, nil)

	require.NoError(t, store.Put(context.Background(), "CURRENT", []byte("123456789")))
	client.AssertExpectations(t)
}

func TestStoreDelete(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Key) == "root/old"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, store.Delete(context.Background(), "old"))
	client.AssertExpectations(t)
}

func TestStoreList(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "root/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("root/checkpoints/b.json")},
			{Key: aws.String("root/CURRENT")},
			{Key: aws.String("root/checkpoints/a.json")},
		},
	}, nil)

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"CURRENT", "checkpoints/a.json", "checkpoints/b.json"}, names)
}

func TestStoreCreateUploadsOnClose(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	var uploaded string
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "root/checkpoints/x.data"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		b, err := io.ReadAll(in.Body)
		if err == nil {
			uploaded = string(b)
		}
	}).Return(&s3.PutObjectOutput{}, nil)

	w, err := store.Create(context.Background(), "checkpoints/x.data")
	require.NoError(t, err)

	_, err = w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	assert.Equal(t, "hello world", uploaded)
	client.AssertExpectations(t)
}
