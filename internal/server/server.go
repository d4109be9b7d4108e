// Package server exposes the function handlers over plain HTTP for local
// development. Requests are converted to the API Gateway proxy shape so the
// deployed code path is the one being exercised.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// ErrHandlerNil indicates that no upload handler was provided.
var ErrHandlerNil = errors.New("upload handler cannot be nil")

// UploadFunc is the upload function entry point.
type UploadFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// EventFunc is the synthesis function entry point.
type EventFunc func(ctx context.Context, event events.S3Event) error

// Server routes HTTP requests to the function handlers.
type Server struct {
	router http.Handler
	upload UploadFunc
	events EventFunc
	log    *logger.Logger
}

// New builds the router. onEvent may be nil, in which case the event route is
// not registered.
func New(upload UploadFunc, onEvent EventFunc, log *logger.Logger) (*Server, error) {
	if upload == nil {
		return nil, ErrHandlerNil
	}

	srv := &Server{upload: upload, events: onEvent, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/upload", srv.handleUpload)
	r.Options("/upload", srv.handleUpload)

	if onEvent != nil {
		r.Post("/events/s3", srv.handleEvent)
	}

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	srv.router = r

	return srv, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)

	go func() {
		s.log.Info("Listening on %s", addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	req, err := toProxyRequest(r)
	if err != nil {
		s.log.Error("Failed to read request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)

		return
	}

	resp, err := s.upload(r.Context(), req)
	if err != nil {
		s.log.Error("Upload handler returned error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	writeProxyResponse(w, resp)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event events.S3Event

	err := json.NewDecoder(r.Body).Decode(&event)
	if err != nil {
		http.Error(w, "invalid S3 event payload", http.StatusBadRequest)

		return
	}

	err = s.events(r.Context(), event)
	if err != nil {
		s.log.Error("Event handler returned error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// toProxyRequest mirrors what API Gateway does for binary media types: the
// body is always delivered base64 encoded.
func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("read body: %w", err)
	}

	headers := make(map[string]string, len(r.Header))
	multiValueHeaders := make(map[string][]string, len(r.Header))

	for name, values := range r.Header {
		if len(values) == 0 {
			continue
		}

		headers[name] = values[len(values)-1]
		multiValueHeaders[name] = values
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		query[name] = strings.Join(values, ",")
	}

	return events.APIGatewayProxyRequest{
		Resource:              r.URL.Path,
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               headers,
		MultiValueHeaders:     multiValueHeaders,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.GetReqID(r.Context()),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
		},
		Body:            base64.StdEncoding.EncodeToString(body),
		IsBase64Encoded: true,
	}, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}

	for name, values := range resp.MultiValueHeaders {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}

	body := []byte(resp.Body)

	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			body = decoded
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}
