package papers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	m.objects[k] = data
	m.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	api := newMemS3()
	store := &S3Store{api: api, bucket: "agro-papers", prefix: "papers"}
	ctx := context.Background()
	key := NewKey()

	require.NoError(t, store.Put(ctx, key, fakePDF, "application/pdf"))
	assert.Contains(t, api.objects, "agro-papers/papers/"+key)
	assert.Equal(t, "application/pdf", api.types["agro-papers/papers/"+key])

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, got)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, store.Put(ctx, "papers/../../x", fakePDF, "application/pdf"))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestNewKeyIsValid(t *testing.T) {
	a, b := NewKey(), NewKey()
	assert.NotEqual(t, a, b)
	assert.NoError(t, checkKey(a))
	assert.Error(t, checkKey("abc.pdf"))
}
