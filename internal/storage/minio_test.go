package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "uploads/a.png", objectKey("uploads", "a.png"))
	require.Equal(t, "publicar/uploads/a.png", objectKey("/publicar/uploads/", "a.png"))
	require.Equal(t, "a.png", objectKey("", "a.png"))
}

func TestPublicReadPolicy(t *testing.T) {
	var policy struct {
		Statement []struct {
			Effect   string
			Action   string
			Resource string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(publicReadPolicy("photos")), &policy))
	require.Len(t, policy.Statement, 1)
	require.Equal(t, "Allow", policy.Statement[0].Effect)
	require.Equal(t, "s3:GetObject", policy.Statement[0].Action)
	require.Equal(t, "arn:aws:s3:::photos/*", policy.Statement[0].Resource)
}

func TestMinioPublicURL(t *testing.T) {
	s := &MinioStorage{publicBase: "http://localhost:9000/photos"}
	require.Equal(t, "http://localhost:9000/photos/uploads/a.png", s.PublicURL("uploads/a.png"))
}
