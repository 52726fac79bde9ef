package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure condition the service knows how to report.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoAssetsFound
	KindSourceFetchFailed
	KindTransformFailed
	KindUploadFailed
	KindDeleteFailed
	KindStoreUnavailable
	KindGenerationFailed
)

var kindNames = map[Kind]string{
	KindUnknown:           "UNKNOWN",
	KindNoAssetsFound:     "FOUND_NO_IMAGES",
	KindSourceFetchFailed: "IMAGE_FETCH_FAILED",
	KindTransformFailed:   "IMAGE_TRANSFORM_FAILED",
	KindUploadFailed:      "UPLOAD_FAILED",
	KindDeleteFailed:      "DELETE_FAILED",
	KindStoreUnavailable:  "STORE_UNAVAILABLE",
	KindGenerationFailed:  "IMAGE_GENERATION_FAILED",
}

// public messages are what a client gets to see; details stay in the logs.
var kindMessages = map[Kind]string{
	KindNoAssetsFound:     "No images found",
	KindSourceFetchFailed: "Failed to fetch the source image",
	KindTransformFailed:   "Failed to process the image",
	KindUploadFailed:      "The file upload on the bucket failed",
	KindDeleteFailed:      "Failed to clean the bucket folder",
	KindStoreUnavailable:  "The image store is unavailable",
	KindGenerationFailed:  "AI image generation failed",
}

const unexpectedMessage = "An unexpected error occurred"

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Status is the HTTP status code a Kind maps to.
func (k Kind) Status() int {
	switch k {
	case KindNoAssetsFound:
		return http.StatusNoContent
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error returned across the core.
type Error struct {
	Kind Kind
	Op   string
	// URL is set for fetch failures so the offending source shows up in logs.
	URL string
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.URL != "" {
		msg += " url=" + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on Kind alone, e.g. errors.Is(err, core.ErrNoAssetsFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.URL == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNoAssetsFound     = &Error{Kind: KindNoAssetsFound}
	ErrSourceFetchFailed = &Error{Kind: KindSourceFetchFailed}
	ErrTransformFailed   = &Error{Kind: KindTransformFailed}
	ErrUploadFailed      = &Error{Kind: KindUploadFailed}
	ErrDeleteFailed      = &Error{Kind: KindDeleteFailed}
	ErrStoreUnavailable  = &Error{Kind: KindStoreUnavailable}
	ErrGenerationFailed  = &Error{Kind: KindGenerationFailed}
)

// E builds an *Error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// FetchError builds a SourceFetchFailed error carrying the source URL.
func FetchError(op, url string, err error) *Error {
	return &Error{Kind: KindSourceFetchFailed, Op: op, URL: url, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Resolve maps any error to the status code and message sent to the client.
func Resolve(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	kind := KindOf(err)
	msg, ok := kindMessages[kind]
	if !ok {
		return http.StatusInternalServerError, unexpectedMessage
	}
	return kind.Status(), msg
}

// Errorf is a small helper for wrapping with a Kind and a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
