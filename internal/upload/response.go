package upload

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// CORS headers.
const (
	headerAllowOrigin  = "Access-Control-Allow-Origin"
	headerAllowMethods = "Access-Control-Allow-Methods"
	headerAllowHeaders = "Access-Control-Allow-Headers"
	headerMaxAge       = "Access-Control-Max-Age"

	allowOrigin     = "*"
	allowMethods    = "POST, OPTIONS"
	allowHeaders    = "Content-Type, Authorization"
	preflightMaxAge = "86400"

	contentTypeJSON = "application/json"
)

const (
	msgUploaded       = "File uploaded successfully"
	msgInternalError  = "Internal server error"
	serverErrorType   = "server_error"
	fallbackErrorBody = `{"error":"Internal server error","type":"server_error"}`
)

// Result is the success payload returned to the client.
type Result struct {
	Message          string `json:"message"`
	OriginalFilename string `json:"original_filename"`
	S3Key            string `json:"s3_key"`
	Size             int    `json:"size"`
	ContentType      string `json:"content_type"`
	UploadTimestamp  string `json:"upload_timestamp"`
}

// ServerError is the payload of a 500 response.
type ServerError struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// RequestError is a client input error. It carries the message returned in the
// "error" field and optional diagnostic fields merged into the same object.
type RequestError struct {
	Message string
	Fields  map[string]any
}

func newRequestError(message string, fields map[string]any) *RequestError {
	return &RequestError{Message: message, Fields: fields}
}

func (e *RequestError) Error() string {
	return e.Message
}

// MarshalJSON flattens the diagnostic fields next to "error".
func (e *RequestError) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(e.Fields)+1)
	for key, value := range e.Fields {
		payload[key] = value
	}

	payload["error"] = e.Message

	return json.Marshal(payload)
}

func corsHeaders() map[string]string {
	return map[string]string{
		headerAllowOrigin:  allowOrigin,
		headerAllowMethods: allowMethods,
		headerAllowHeaders: allowHeaders,
	}
}

func preflightResponse() events.APIGatewayProxyResponse {
	headers := corsHeaders()
	headers[headerMaxAge] = preflightMaxAge

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
	}
}

func successResponse(result Result) events.APIGatewayProxyResponse {
	headers := corsHeaders()
	headers[headerContentType] = contentTypeJSON

	return jsonResponse(http.StatusOK, result, headers)
}

func clientErrorResponse(reqErr *RequestError) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, reqErr, map[string]string{headerContentType: contentTypeJSON})
}

func serverErrorResponse(err error) events.APIGatewayProxyResponse {
	message := msgInternalError
	if err != nil {
		message += ": " + err.Error()
	}

	payload := ServerError{Error: message, Type: serverErrorType}

	return jsonResponse(http.StatusInternalServerError, payload, map[string]string{headerContentType: contentTypeJSON})
}

func jsonResponse(status int, payload any, headers map[string]string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{headerContentType: contentTypeJSON},
			Body:       fallbackErrorBody,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}

func asRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}

	return nil, false
}
