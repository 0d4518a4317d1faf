package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why a call failed.
type Kind string

const (
	// KindTransport means no response was received.
	KindTransport Kind = "transport"
	// KindEncode means the request body could not be built, so nothing was sent.
	KindEncode Kind = "encode"
	// KindDecode means a response arrived but its body could not be parsed.
	KindDecode Kind = "decode"
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindAuth is synthesized locally: no usable credentials, or the session could not be recovered.
	KindAuth Kind = "auth"
)

// Failure is the single error shape returned by the client and everything built on it.
type Failure struct {
	Kind    Kind
	Status  int // 0 when no response was received
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindHTTP:
		return fmt.Sprintf("http %d: %s", f.Status, f.Message)
	case KindDecode:
		if f.Cause != nil {
			return fmt.Sprintf("decode response (status %d): %v", f.Status, f.Cause)
		}
		return fmt.Sprintf("decode response (status %d)", f.Status)
	default:
		if f.Cause != nil && f.Message == "" {
			return fmt.Sprintf("%s: %v", f.Kind, f.Cause)
		}
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// AsFailure returns the Failure in err's chain, if any.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsStatus reports whether err is an HTTP failure with one of the given statuses.
func IsStatus(err error, statuses ...int) bool {
	f, ok := AsFailure(err)
	if !ok || f.Kind != KindHTTP {
		return false
	}
	for _, s := range statuses {
		if f.Status == s {
			return true
		}
	}
	return false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}

func httpFailure(status int, body []byte) *Failure {
	return &Failure{Kind: KindHTTP, Status: status, Message: ServerMessage(status, body)}
}

// ServerMessage extracts the human readable message from an error body. The backend uses
// several shapes: {"detail": "..."}, validation lists {"detail": [{"msg": "..."}]},
// {"message": "..."} and the OAuth2 {"error", "error_description"} pair.
func ServerMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := detailMessage(payload["detail"]); msg != "" {
			return msg
		}
		for _, key := range []string{"message", "error_description", "error"} {
			if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func detailMessage(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case []any:
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if msg, ok := entry["msg"].(string); ok && msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	case map[string]any:
		if msg, ok := d["message"].(string); ok {
			return msg
		}
	}
	return ""
}
