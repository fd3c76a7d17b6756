package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineStorage(baseURL string) *S3Storage {
	client := s3.New(s3.Options{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	})
	return NewS3StorageWithClient(client, "provider-docs", baseURL)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/business-documents/42/", "Insurance.PDF")
	assert.True(t, strings.HasPrefix(key, "business-documents/42/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotEqual(t, key, ObjectKey("business-documents/42", "Insurance.PDF"))
}

func TestFileURL(t *testing.T) {
	s := newOfflineStorage("")
	assert.Equal(t, "https://provider-docs.s3.us-east-1.amazonaws.com/a/b.pdf", s.FileURL("a/b.pdf"))

	s = newOfflineStorage("https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/a/b.pdf", s.FileURL("a/b.pdf"))
}

func TestPresignGet(t *testing.T) {
	s := newOfflineStorage("")
	url, err := s.PresignGet(context.Background(), "business-documents/1/x.pdf", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "business-documents/1/x.pdf")
	assert.Contains(t, url, "X-Amz-Expires=600")
}
