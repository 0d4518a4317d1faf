package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
)

// Request describes one call to the backend.
type Request struct {
	Method       string
	Endpoint     string // path relative to the base URL, e.g. "/clients"
	Query        url.Values
	Body         *Body
	RequiresAuth bool
}

// Body is an encoded request body. It is kept in memory so a call can be re-issued.
type Body struct {
	contentType string
	data        []byte
	err         error
}

func (b *Body) ContentType() string {
	return b.contentType
}

func (b *Body) reader() (io.Reader, error) {
	if b.err != nil {
		return nil, b.err
	}
	return bytes.NewReader(b.data), nil
}

// JSON encodes v as an application/json body.
func JSON(v any) *Body {
	data, err := json.Marshal(v)
	if err != nil {
		err = apperrors.Wrapf(apperrors.ErrInvalidPayload, "encode json body: %v", err)
	}
	return &Body{contentType: "application/json", data: data, err: err}
}

// Form encodes values as an application/x-www-form-urlencoded body.
func Form(values url.Values) *Body {
	return &Body{contentType: "application/x-www-form-urlencoded", data: []byte(values.Encode())}
}

// Multipart builds a multipart/form-data body holding one file part plus plain fields.
func Multipart(field, filename string, content io.Reader, fields map[string]string) *Body {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return &Body{err: apperrors.Wrapf(apperrors.ErrInvalidPayload, "multipart field %s: %v", k, err)}
		}
	}

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return &Body{err: apperrors.Wrapf(apperrors.ErrInvalidPayload, "multipart file %s: %v", field, err)}
	}
	if _, err := io.Copy(part, content); err != nil {
		return &Body{err: apperrors.Wrapf(apperrors.ErrInvalidPayload, "multipart read %s: %v", filename, err)}
	}
	if err := w.Close(); err != nil {
		return &Body{err: apperrors.Wrapf(apperrors.ErrInvalidPayload, "multipart close: %v", err)}
	}
	return &Body{contentType: w.FormDataContentType(), data: buf.Bytes()}
}

// Route is "METHOD /endpoint", used in logs and by test backends to count calls.
func (r Request) Route() string {
	return strings.ToUpper(r.Method) + " " + r.Endpoint
}
