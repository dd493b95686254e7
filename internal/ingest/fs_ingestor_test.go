package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	ing := NewFSIngestor(nil)

	l, err := ing.IngestPath(context.Background(), writeFile(t, dir, "policy.PDF", []byte("%PDF-1.4\n%broken")))
	require.NoError(t, err)
	assert.Equal(t, "policy.PDF", l.File.Name)
	assert.Equal(t, "application/pdf", l.File.MIMEType)
	assert.Len(t, l.File.Checksum, 64)
	assert.Equal(t, l.File.Checksum, l.Result.HashHex)
	assert.Zero(t, l.Result.Pages, "unreadable PDF structure leaves pages unknown")

	l, err = ing.IngestPath(context.Background(), writeFile(t, dir, "scan.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", l.File.MIMEType)
}

func TestIngestPath_Rejections(t *testing.T) {
	dir := t.TempDir()
	ing := NewFSIngestor(nil)
	ctx := context.Background()

	_, err := ing.IngestPath(ctx, writeFile(t, dir, "notes.txt", []byte("hello")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = ing.IngestPath(ctx, writeFile(t, dir, "empty.pdf", nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ing.IngestPath(ctx, writeFile(t, dir, "page.pdf", []byte("<html><body>not a pdf</body></html>")))
	assert.ErrorIs(t, err, ErrUnsupportedData)

	small := &FSIngestor{MaxBytes: 4, Logger: ing.Logger}
	_, err = small.IngestPath(ctx, writeFile(t, dir, "big.pdf", []byte("%PDF-1.7 long")))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", []byte("%PDF-1.4 b"))
	writeFile(t, dir, "a.pdf", []byte("%PDF-1.4 a"))
	writeFile(t, dir, "sub/c.png", pngHeader)
	writeFile(t, dir, "readme.md", []byte("# skip"))
	writeFile(t, dir, ".hidden/d.pdf", []byte("%PDF-1.4 d"))
	writeFile(t, dir, "bad.jpg", []byte("plain text"))

	loaded, failures, stats, err := NewFSIngestor(nil).IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)

	var names []string
	for _, l := range loaded {
		names = append(names, l.File.Name)
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.png"}, names)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad.jpg", failures[0].Name)
	assert.NotEmpty(t, failures[0].Err)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)

	loaded, _, _, err = NewFSIngestor(nil).IngestDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Len(t, loaded, 4)
}

func TestDetectMIME(t *testing.T) {
	mt, ok := DetectMIME("x.jpg", []byte{0xff, 0xd8, 0xff, 0xe0})
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", mt)

	_, ok = DetectMIME("x.pdf", []byte("GIF89a"))
	assert.False(t, ok)

	assert.True(t, IsHidden("/tmp/.git"))
	assert.False(t, IsHidden("/tmp/a.pdf"))
}
