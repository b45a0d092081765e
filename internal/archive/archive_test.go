package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func (m *memoryUploader) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func TestArchiveTournament(t *testing.T) {
	up := &memoryUploader{objects: map[string][]byte{}, contentTypes: map[string]string{}}
	a := New(up)

	snapshot := map[string]any{"name": "Friday Cup", "teams": []string{"A", "B"}}
	require.NoError(t, a.ArchiveTournament(context.Background(), 42, snapshot))

	require.Contains(t, up.objects, "tournaments/42.json")
	assert.Equal(t, "application/json", up.contentTypes["tournaments/42.json"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(up.objects["tournaments/42.json"], &decoded))
	assert.Equal(t, "Friday Cup", decoded["name"])
}

func TestArchiveErrors(t *testing.T) {
	boom := errors.New("boom")
	a := New(&memoryUploader{err: boom})

	assert.ErrorIs(t, a.ArchiveTournament(context.Background(), 1, map[string]int{}), boom)
	assert.Error(t, a.ArchiveTournament(context.Background(), 1, func() {}), "unencodable snapshot")
}

func TestNewR2UploaderRequiresConfig(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "acc", BucketName: "b"})
	assert.Error(t, err)
}
