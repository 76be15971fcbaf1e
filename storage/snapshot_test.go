package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *recordingUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *recordingUploader) GetPublicURL(key string) string {
	return joinPublicURL("https://cdn.example.com/files", key)
}

func TestSnapshotWriter_Write(t *testing.T) {
	uploader := &recordingUploader{}
	writer, err := NewSnapshotWriter(uploader)
	require.NoError(t, err)
	writer.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	result, err := writer.Write(context.Background(), 4, "created", map[string]int{"matches": 12})
	require.NoError(t, err)

	assert.Equal(t, "brackets/tournament_4/20260301T123000Z_created.json", result.Key)
	assert.Equal(t, "https://cdn.example.com/files/brackets/tournament_4/20260301T123000Z_created.json", result.Location)
	assert.Equal(t, "application/json", uploader.contentType)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(uploader.body, &payload))
	assert.Equal(t, 12, payload["matches"])
}

func TestSnapshotWriter_UploadError(t *testing.T) {
	writer, err := NewSnapshotWriter(&recordingUploader{err: errors.New("bucket unavailable")})
	require.NoError(t, err)

	_, err = writer.Write(context.Background(), 1, "seeded", struct{}{})
	assert.EqualError(t, err, "bucket unavailable")
}

func TestNewSnapshotWriter_RequiresUploader(t *testing.T) {
	_, err := NewSnapshotWriter(nil)
	assert.Error(t, err)
}

func TestJoinPublicURL(t *testing.T) {
	assert.Equal(t, "https://pub.r2.dev/a/b.json", joinPublicURL("https://pub.r2.dev", "/a/b.json"))
	assert.Equal(t, "https://pub.r2.dev/base/a.json", joinPublicURL("https://pub.r2.dev/base/", "a.json"))
	assert.Empty(t, joinPublicURL("", "a.json"))
	assert.Empty(t, joinPublicURL("https://pub.r2.dev", ""))
}

func TestCloudflareR2UploaderConfig_IsComplete(t *testing.T) {
	cfg := CloudflareR2UploaderConfig{AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret", BucketName: "brackets", PublicBaseURL: "https://pub.r2.dev"}
	assert.True(t, cfg.IsComplete())

	cfg.BucketName = ""
	assert.False(t, cfg.IsComplete())

	_, err := NewCloudflareR2Uploader(context.Background(), cfg)
	assert.Error(t, err)
}
