package upload_test

import (
	"testing"
	"time"

	"github.com/book-expert/text-speech/internal/upload"
	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     string
	}{
		{"report.csv", ".csv"},
		{"REPORT.CSV", ".csv"},
		{"archive.tar.gz", ".gz"},
		{"Makefile", ""},
		{".env", ".env"},
		{"trailing.", "."},
	}

	for _, testCase := range tests {
		assert.Equal(t, testCase.want, upload.Extension(testCase.filename), testCase.filename)
	}
}

func TestIsAllowed(t *testing.T) {
	t.Parallel()

	for _, ext := range upload.AllowedExtensions() {
		assert.True(t, upload.IsAllowed(ext), ext)
	}

	for _, ext := range []string{"", ".", ".exe", ".pdf", "txt", ".TXT"} {
		assert.False(t, upload.IsAllowed(ext), ext)
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/csv", upload.ContentTypeFor(".csv"))
	assert.Equal(t, "application/x-yaml", upload.ContentTypeFor(".yml"))
	assert.Equal(t, upload.DefaultContentType, upload.ContentTypeFor(".bin"))
	assert.Equal(t, "application/octet-stream", upload.ContentTypeFor(""))
}

func TestAllowedExtensionsIsACopy(t *testing.T) {
	t.Parallel()

	list := upload.AllowedExtensions()
	list[0] = ".exe"

	assert.False(t, upload.IsAllowed(".exe"))
	assert.Equal(t, ".txt", upload.AllowedExtensions()[0])
}

func TestBuildKey(t *testing.T) {
	t.Parallel()

	stamp := upload.FormatTimestamp(time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, "20241231_235959", stamp)

	assert.Equal(t, "20241231_235959_cafebabe_data.txt", upload.BuildKey("", stamp, "cafebabe", "data.txt"))
	assert.Equal(t, "in/20241231_235959_cafebabe_data.txt", upload.BuildKey("in/", stamp, "cafebabe", "data.txt"))
}

func TestNewShortID(t *testing.T) {
	t.Parallel()

	first := upload.NewShortID()
	second := upload.NewShortID()

	assert.Len(t, first, 8)
	assert.Regexp(t, "^[0-9a-f]{8}$", first)
	assert.NotEqual(t, first, second)
}
