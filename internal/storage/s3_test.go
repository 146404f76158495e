package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreUsesPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3Store(client, "civic-docs", "generated")

	require.NoError(t, store.Put(ctx, "documents/KK_1_2.pdf", []byte("pdf"), "application/pdf"))
	assert.Contains(t, client.objects, "civic-docs/generated/documents/KK_1_2.pdf")
	assert.Equal(t, "application/pdf", client.types["civic-docs/generated/documents/KK_1_2.pdf"])

	body, size, err := store.Open(ctx, "documents/KK_1_2.pdf")
	require.NoError(t, err)
	defer body.Close()
	assert.EqualValues(t, 3, size)

	require.NoError(t, store.Delete(ctx, "documents/KK_1_2.pdf"))
	assert.Empty(t, client.objects)
}

func TestS3StoreMissingKeyIsNotExist(t *testing.T) {
	store := NewS3Store(newFakeS3(), "civic-docs", "")

	_, _, err := store.Open(context.Background(), "documents/missing.pdf")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestS3StorePutError(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("access denied")
	store := NewS3Store(client, "civic-docs", "")

	err := store.Put(context.Background(), "a.pdf", []byte("x"), "application/pdf")
	assert.ErrorContains(t, err, "access denied")
}
