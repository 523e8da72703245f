package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "users/42/my_photo_20250401_103000.png", normalizeName("users/42/my photo!.PNG", fixedNow))
	assert.Equal(t, "file_20250401_103000.jpg", normalizeName("???.jpg", fixedNow))
	assert.Equal(t, "etc/passwd_20250401_103000", normalizeName("../../etc/passwd", fixedNow))
}

func TestLocalStorage_Save(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir, "/uploads/")
	ls.now = func() time.Time { return fixedNow }

	url, err := ls.Save(context.Background(), "users/42/avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/users/42/avatar_20250401_103000.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "users", "42", "avatar_20250401_103000.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "image/webp", ContentType("a.webp"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}
