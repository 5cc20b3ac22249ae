package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreUploadAndDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	store := newS3Store(fake, S3Config{Bucket: "banners", Region: "ap-south-1"})
	ctx := context.Background()

	url, err := store.Upload(ctx, "events/1.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://banners.s3.ap-south-1.amazonaws.com/events/1.png", url)
	assert.Equal(t, "image/png", fake.types["events/1.png"])

	require.NoError(t, store.Delete(ctx, "events/1.png"))
	assert.Empty(t, fake.objects)
}

func TestS3StoreCustomEndpointURL(t *testing.T) {
	store := newS3Store(&fakeS3{}, S3Config{Bucket: "banners", Endpoint: "http://minio:9000/"})
	assert.Equal(t, "http://minio:9000/banners", store.baseURL)
}

func TestNoopStoreRefusesUploads(t *testing.T) {
	_, err := NoopStore{}.Upload(context.Background(), "k", nil, "image/png")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.NoError(t, NoopStore{}.Delete(context.Background(), "k"))
}

func TestParseImageDataURL(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("fake-jpeg"))

	data, contentType, ext, err := ParseImageDataURL("data:image/jpeg;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-jpeg"), data)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, "jpg", ext)

	tests := []string{
		"https://example.com/a.png",
		"data:image/png,rawdata",
		"data:text/html;base64," + encoded,
		"data:image/png;base64,!!!",
	}
	for _, in := range tests {
		_, _, _, err := ParseImageDataURL(in)
		assert.Error(t, err, in)
	}
}
