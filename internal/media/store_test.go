package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		suffix   string
	}{
		{"plain", "photo.jpg", "_photo.jpg"},
		{"path traversal", "../../etc/passwd", "_passwd"},
		{"windows path", `C:\Users\me\pic.png`, "_pic.png"},
		{"spaces", "my story.mp4", "_my_story.mp4"},
		{"empty", "", "_upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey("stories", tt.filename)
			assert.True(t, strings.HasPrefix(key, "stories/"), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.NotContains(t, strings.TrimPrefix(key, "stories/"), "/")
		})
	}
}

func TestLocalStore_SaveServeDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "stories", "hello.txt", strings.NewReader("hi there"), "text/plain")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, URLPrefix+"stories/"))

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hi there", string(body))

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, strings.TrimPrefix(url, URLPrefix)))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, url))
}

func TestLocalStore_DeleteRejectsForeignURL(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "https://elsewhere/x.jpg"))
	assert.Error(t, store.Delete(context.Background(), URLPrefix+"../../outside"))
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3Store_SaveAndDelete(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, S3Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000/"})
	ctx := context.Background()

	url, err := store.Save(ctx, "profiles", "me.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/media/profiles/"), url)

	require.Len(t, client.puts, 1)
	assert.Equal(t, "media", aws.ToString(client.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.puts[0].ContentType))

	require.NoError(t, store.Delete(ctx, url))
	require.Len(t, client.deletes, 1)
	assert.Equal(t, aws.ToString(client.puts[0].Key), aws.ToString(client.deletes[0].Key))

	assert.Error(t, store.Delete(ctx, "http://other/bucket/key"))
}

func TestS3Store_PutError(t *testing.T) {
	client := &fakeS3{err: errors.New("boom")}
	store := newS3Store(client, S3Config{Bucket: "media", Region: "eu-west-1"})

	_, err := store.Save(context.Background(), "stories", "a.jpg", strings.NewReader("x"), "")
	assert.Error(t, err)
	assert.Nil(t, client.puts[0].ContentType)
}
