package assets

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blockdoc/internal/apperr"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func TestSaveAndPath(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	a, err := s.Save("photo.png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", a.Filename)
	assert.Equal(t, "/attachments/photo.png", a.URL)
	assert.Equal(t, int64(len(pngBytes)), a.Size)

	got, err := os.ReadFile(filepath.Join(root, "attachments", "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = s.Save("photo.png", pngBytes)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestSaveRejects(t *testing.T) {
	s := NewStore(t.TempDir())

	_, err := s.Save("notes.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Save("fake.png", []byte("GIF89a......"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Save("fake.svg", []byte("<html></html>"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Save("big.png", make([]byte, MaxSize+1))
	assert.ErrorIs(t, err, apperr.ErrLimitExceeded)
}

func TestSaveSanitizesName(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	a, err := s.Save("../../etc/my photo.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	require.NoError(t, err)
	assert.Equal(t, "my_photo.svg", a.Filename)
	_, err = os.Stat(filepath.Join(root, "attachments", "my_photo.svg"))
	assert.NoError(t, err)
}

func TestPathRejectsTraversal(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, name := range []string{"", "../x.png", "a/b.png", ".hidden.png"} {
		_, err := s.Path(name)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, name)
	}
}

func TestFetchDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	data, name, err := Fetch(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.True(t, strings.HasSuffix(name, ".png"))

	_, _, err = Fetch(context.Background(), "data:text/plain;base64,aGk=")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = Fetch(context.Background(), "data:image/png,raw")
	assert.Error(t, err)
}

func TestFetchBlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	_, _, err := Fetch(context.Background(), srv.URL+"/a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loopback")

	_, _, err = Fetch(context.Background(), "ftp://example.com/a.png")
	assert.Error(t, err)
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "cat.jpg", filenameFromURL("https://example.com/img/cat.jpg?x=1", ".png"))
	assert.True(t, strings.HasSuffix(filenameFromURL("https://example.com/", ".gif"), ".gif"))
	assert.True(t, strings.HasSuffix(filenameFromURL("https://example.com/noext", ""), ".bin"))
}
