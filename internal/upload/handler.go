// Package upload implements the HTTP upload function: it parses a multipart
// request, validates the single file it carries and stores it in the object
// store under a collision-resistant key.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/core"
)

// Object metadata keys.
const (
	MetadataOriginalFilename = "original-filename"
	MetadataUploadTimestamp  = "upload-timestamp"
	MetadataFileExtension    = "file-extension"
)

// Diagnostic fields of client error responses.
const (
	fieldFilename  = "filename"
	fieldHasData   = "has_data"
	fieldExtension = "extension"
	fieldSize      = "size"
	fieldMaxBytes  = "max_upload_bytes"
)

var (
	// ErrStoreNil indicates that no object store was provided.
	ErrStoreNil = errors.New("object store cannot be nil")
	// ErrBucketEmpty indicates that no destination bucket was provided.
	ErrBucketEmpty = errors.New("bucket cannot be empty")
	// ErrUnexpected is reported for recovered panics.
	ErrUnexpected = errors.New("unexpected failure while handling upload")
)

// Options configures a Handler. Zero Now and NewID fall back to the wall
// clock and NewShortID.
type Options struct {
	Bucket         string
	KeyPrefix      string
	MaxUploadBytes int64
	Now            func() time.Time
	NewID          func() string
}

// Handler serves upload requests. It holds no per-request state and is safe
// for concurrent use.
type Handler struct {
	store          core.ObjectStore
	bucket         string
	keyPrefix      string
	maxUploadBytes int64
	now            func() time.Time
	newID          func() string
	log            *logger.Logger
}

// NewHandler creates an upload handler writing into opts.Bucket.
func NewHandler(store core.ObjectStore, opts Options, log *logger.Logger) (*Handler, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, ErrBucketEmpty
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	newID := opts.NewID
	if newID == nil {
		newID = NewShortID
	}

	return &Handler{
		store:          store,
		bucket:         opts.Bucket,
		keyPrefix:      opts.KeyPrefix,
		maxUploadBytes: opts.MaxUploadBytes,
		now:            now,
		newID:          newID,
		log:            log,
	}, nil
}

// Handle is the function entry point. Preflight requests are answered with
// CORS headers only; every other method goes through the upload path. The
// returned error is always nil: all failures are encoded in the response.
func (h *Handler) Handle(
	ctx context.Context,
	req events.APIGatewayProxyRequest,
) (events.APIGatewayProxyResponse, error) {
	if strings.EqualFold(req.HTTPMethod, http.MethodOptions) {
		return preflightResponse(), nil
	}

	return h.upload(ctx, req), nil
}

func (h *Handler) upload(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			h.log.Error("Recovered from panic while handling upload: %v\n%s", recovered, debug.Stack())

			resp = serverErrorResponse(ErrUnexpected)
		}
	}()

	result, err := h.process(ctx, req)
	if err != nil {
		reqErr, ok := asRequestError(err)
		if ok {
			h.log.Warn("Rejected upload request: %s", reqErr.Message)

			return clientErrorResponse(reqErr)
		}

		h.log.Error("Upload failed: %v", err)

		return serverErrorResponse(err)
	}

	h.log.Info("Successfully uploaded %s to bucket %s (%d bytes)", result.S3Key, h.bucket, result.Size)

	return successResponse(result)
}

// process runs the validation chain and stores the file.
func (h *Handler) process(ctx context.Context, req events.APIGatewayProxyRequest) (Result, error) {
	body, err := decodeBody(req)
	if err != nil {
		return Result{}, err
	}

	boundary, err := boundaryFromContentType(headerValue(req, headerContentType))
	if err != nil {
		return Result{}, err
	}

	file, err := extractFile(body, boundary, h.maxUploadBytes)
	if err != nil {
		h.log.Warn("Stopped reading multipart body: %v", err)
	}

	if file.Name == "" || len(file.Data) == 0 {
		return Result{}, newRequestError(msgNoFile, map[string]any{
			fieldFilename: nullable(file.Name),
			fieldHasData:  len(file.Data) > 0,
		})
	}

	ext := Extension(file.Name)
	if !IsAllowed(ext) {
		return Result{}, newRequestError(notAllowedMessage(), map[string]any{
			fieldFilename:  file.Name,
			fieldExtension: ext,
		})
	}

	if file.TooLarge {
		return Result{}, newRequestError(fmt.Sprintf(msgFmtFileTooLarge, h.maxUploadBytes), map[string]any{
			fieldFilename: file.Name,
			fieldSize:     file.Size,
			fieldMaxBytes: h.maxUploadBytes,
		})
	}

	timestamp := FormatTimestamp(h.now())
	key := BuildKey(h.keyPrefix, timestamp, h.newID(), file.Name)
	contentType := ContentTypeFor(ext)

	err = h.store.PutObject(ctx, h.bucket, core.Object{
		Key:         key,
		Body:        file.Data,
		ContentType: contentType,
		Metadata: map[string]string{
			MetadataOriginalFilename: file.Name,
			MetadataUploadTimestamp:  timestamp,
			MetadataFileExtension:    ext,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to store object '%s': %w", key, err)
	}

	return Result{
		Message:          msgUploaded,
		OriginalFilename: file.Name,
		S3Key:            key,
		Size:             len(file.Data),
		ContentType:      contentType,
		UploadTimestamp:  timestamp,
	}, nil
}

// nullable maps an empty string to JSON null.
func nullable(value string) any {
	if value == "" {
		return nil
	}

	return value
}
