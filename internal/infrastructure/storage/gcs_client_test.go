package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	name := ObjectName("/chat/abc/", "image/png")
	assert.True(t, strings.HasPrefix(name, "chat/abc/"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	assert.True(t, strings.HasSuffix(ObjectName("x", "video/mp4"), ".mp4"))
	assert.True(t, strings.HasSuffix(ObjectName("x", "application/x-unknown-thing"), ".bin"))
	assert.True(t, strings.HasPrefix(ObjectName("", "image/jpeg"), "attachments/"))
}

func TestObjectFromURL(t *testing.T) {
	c := &CloudStorageClient{bucketName: "media"}

	name, err := c.objectFromURL("https://storage.googleapis.com/media/chat/a.png")
	require.NoError(t, err)
	assert.Equal(t, "chat/a.png", name)

	_, err = c.objectFromURL("https://storage.googleapis.com/other/chat/a.png")
	assert.Error(t, err)
	_, err = c.objectFromURL("https://example.com/media/a.png")
	assert.Error(t, err)
	_, err = c.objectFromURL("https://storage.googleapis.com/media/")
	assert.Error(t, err)
}
