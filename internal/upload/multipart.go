package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const (
	headerContentType = "Content-Type"
	mediaTypeFormData = "multipart/form-data"
	boundaryParam     = "boundary"
)

// Client-facing error messages.
const (
	msgNoBody            = "No body found in request"
	msgInvalidBase64     = "Invalid base64 encoding"
	msgNotMultipart      = "Content-Type must be multipart/form-data"
	msgNoBoundary        = "No boundary found in multipart data"
	msgNoFile            = "No file found or file is empty"
	msgFmtNotAllowed     = "File type not allowed. Allowed types: %s"
	msgFmtFileTooLarge   = "File exceeds maximum size of %d bytes"
	allowedListSeparator = ", "
)

// ErrMalformedMultipart indicates that the body could not be read as multipart data.
var ErrMalformedMultipart = errors.New("malformed multipart body")

// filePart is the single file extracted from a multipart body.
type filePart struct {
	Name     string
	Data     []byte
	Size     int64
	TooLarge bool
}

// decodeBody returns the raw request bytes, undoing transport base64 encoding.
func decodeBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if req.Body == "" {
		return nil, newRequestError(msgNoBody, nil)
	}

	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, newRequestError(msgInvalidBase64, nil)
	}

	return decoded, nil
}

// headerValue performs a case-insensitive header lookup over both header maps.
func headerValue(req events.APIGatewayProxyRequest, name string) string {
	for key, value := range req.Headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}

	for key, values := range req.MultiValueHeaders {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}

	return ""
}

// boundaryFromContentType validates the multipart media type and returns its boundary.
func boundaryFromContentType(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Malformed or duplicated parameters fail the whole parse; the media
		// type itself is still the text before the first ';'.
		head, _, _ := strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(head))
	}

	if mediaType != mediaTypeFormData {
		return "", newRequestError(msgNotMultipart, nil)
	}

	boundary := params[boundaryParam]
	if boundary == "" {
		boundary = scanBoundary(contentType)
	}

	if boundary == "" {
		return "", newRequestError(msgNoBoundary, nil)
	}

	return boundary, nil
}

// scanBoundary returns the first non-empty boundary parameter found in the
// raw header, without its quotes.
func scanBoundary(contentType string) string {
	_, rest, _ := strings.Cut(contentType, ";")

	for _, param := range strings.Split(rest, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), boundaryParam) {
			continue
		}

		value = strings.Trim(strings.TrimSpace(value), `"`)
		if value != "" {
			return value
		}
	}

	return ""
}

// extractFile returns the first part that carries a filename and non-empty
// content. A named but empty part is remembered so its name can be reported.
// When the body turns out to be malformed, the parts seen so far are returned
// together with an error wrapping ErrMalformedMultipart.
func extractFile(body []byte, boundary string, limit int64) (filePart, error) {
	var found filePart

	reader := multipart.NewReader(bytes.NewReader(body), boundary)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return found, nil
		}

		if err != nil {
			return found, fmt.Errorf("%w: %w", ErrMalformedMultipart, err)
		}

		name := part.FileName()
		if name == "" {
			_ = part.Close()

			continue
		}

		data, size, readErr := readPart(part, limit)
		_ = part.Close()

		found.Name = name

		if readErr != nil {
			return found, fmt.Errorf("%w: part '%s': %w", ErrMalformedMultipart, name, readErr)
		}

		if len(data) > 0 {
			found.Data = data
			found.Size = size
			found.TooLarge = limit > 0 && size > limit

			return found, nil
		}
	}
}

// readPart reads at most limit bytes of the part and reports the part's full
// size. A non-positive limit reads everything.
func readPart(part io.Reader, limit int64) ([]byte, int64, error) {
	if limit <= 0 {
		data, err := io.ReadAll(part)

		return data, int64(len(data)), err
	}

	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return nil, 0, err
	}

	if int64(len(data)) <= limit {
		return data, int64(len(data)), nil
	}

	rest, err := io.Copy(io.Discard, part)
	if err != nil {
		return nil, 0, err
	}

	return data[:limit], int64(len(data)) + rest, nil
}

func notAllowedMessage() string {
	return fmt.Sprintf(msgFmtNotAllowed, strings.Join(allowedExtensions, allowedListSeparator))
}
