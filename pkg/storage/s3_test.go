package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	assert.True(t, ValidateImageType("image/png", ""))
	assert.True(t, ValidateImageType("IMAGE/JPEG", "x"))
	assert.True(t, ValidateImageType("", "cover.webp"))
	assert.True(t, ValidateImageType("application/octet-stream", "cover.JPG"))
	assert.False(t, ValidateImageType("video/mp4", "clip.mp4"))
	assert.False(t, ValidateImageType("", ""))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeFor("image/png", "a.jpg"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("", "a.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("", "a.txt"))
}

func TestCoverKey(t *testing.T) {
	id := uuid.New()
	k1 := CoverKey(id, "image/png", "../../etc/passwd")
	k2 := CoverKey(id, "image/png", "cover.png")

	assert.True(t, strings.HasPrefix(k1, "covers/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(k1, ".png"))
	assert.NotContains(t, k1, "..")
	assert.NotEqual(t, k1, k2)
	assert.True(t, strings.HasSuffix(CoverKey(id, "", "photo.jpeg"), ".jpg"))
}

func TestPendingCoverKey(t *testing.T) {
	user := uuid.New()
	k := PendingCoverKey(user, "image/gif", "")
	assert.True(t, strings.HasPrefix(k, "covers/pending/"+user.String()+"/"))
	assert.True(t, strings.HasSuffix(k, ".gif"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/covers/x.png", publicURL("b", "eu-west-1", "covers/x.png"))
}
