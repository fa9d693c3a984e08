package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dynamize/blobstore"
)

// memDDB is an in-memory DDBClient keyed by base_uri and version.
type memDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMemDDB() *memDDB {
	return &memDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func version(item map[string]types.AttributeValue) uint64 {
	v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
	return v
}

func (m *memDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	key := fmt.Sprintf("%s:%d", uri, version(params.Item))

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, ok := m.items[key]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memDDB) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		va, vb := version(a), version(b)
		if !aws.ToBool(params.ScanIndexForward) {
			va, vb = vb, va
		}
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func newTestCommitStore(ddb DDBClient, baseURI string) *DDBCommitStore {
	return NewDDBCommitStore(NewStore(new(MockS3Client), "bucket", "test"), ddb, "dynamize-commits", baseURI)
}

func readCurrent(t *testing.T, store blobstore.BlobStore) string {
	t.Helper()

	data, err := blobstore.ReadAll(context.Background(), store, CurrentName)
	require.NoError(t, err)
	return string(data)
}

func TestDDBCommitStoreLatestWins(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMemDDB(), "s3://bucket/test/")

	for i := 1; i <= 12; i++ {
		require.NoError(t, store.Put(ctx, CurrentName, []byte(fmt.Sprintf("checkpoints/%02d", i))))
	}

	assert.Equal(t, "checkpoints/12", readCurrent(t, store))

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), v)
}

func TestDDBCommitStoreNotFoundBeforeCommit(t *testing.T) {
	store := newTestCommitStore(newMemDDB(), "s3://bucket/test/")

	_, err := store.Open(context.Background(), CurrentName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStoreConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestCommitStore(newMemDDB(), "s3://bucket/test/")
	require.NoError(t, store.Put(ctx, CurrentName, []byte("checkpoints/base")))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("checkpoints/%d", i)))
			if err != nil && !errors.Is(err, ErrConcurrentModification) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Positive(t, successes)

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1+successes), v)
}

func TestDDBCommitStoreIsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMemDDB()
	a := newTestCommitStore(ddb, "s3://bucket-a/path/")
	b := newTestCommitStore(ddb, "s3://bucket-b/path/")

	require.NoError(t, a.Put(ctx, CurrentName, []byte("checkpoints/a")))
	require.NoError(t, b.Put(ctx, CurrentName, []byte("checkpoints/b")))

	assert.Equal(t, "checkpoints/a", readCurrent(t, a))
	assert.Equal(t, "checkpoints/b", readCurrent(t, b))
}

func TestPointerBlobReadRange(t *testing.T) {
	ctx := context.Background()
	blob := &pointerBlob{data: []byte("checkpoints/abc")}

	rc, err := blob.ReadRange(ctx, 12, 10)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
