package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes one call to the backend. Path is relative to the
// client's base URL and may carry its own query string.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Timeout time.Duration
	Headers http.Header
	// SkipAuth sends the request without any credential.
	SkipAuth bool
}

// URL joins the request path and query onto base.
func (r Request) URL(base string) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + r.Query.Encode()
}

// HTTPMethod returns the upper-cased method, GET when unset.
func (r Request) HTTPMethod() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// BodyKind tells how a response body was interpreted.
type BodyKind int

const (
	BodyRaw BodyKind = iota
	BodyJSON
	BodyText
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "raw"
	}
}

// Response is a successful (2xx) or redirect (3xx) answer. Redirects are
// never followed; Location carries the target.
type Response struct {
	Method   string
	Path     string
	Status   int
	Header   http.Header
	Kind     BodyKind
	Body     []byte
	Location string
}

// NewResponse classifies a raw answer. Both the live client and the mock
// layer build their results through it so callers see identical values
// and errors either way.
func NewResponse(method, path string, status int, header http.Header, body []byte) (*Response, error) {
	if header == nil {
		header = http.Header{}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, &Error{Kind: KindUnauthorized, Method: method, Path: path, Status: status, Body: truncate(body)}
	case status < 200 || status >= 400:
		return nil, &Error{Kind: KindServer, Method: method, Path: path, Status: status, Body: truncate(body)}
	}

	resp := &Response{
		Method: method,
		Path:   path,
		Status: status,
		Header: header,
		Kind:   bodyKind(header.Get("Content-Type")),
		Body:   body,
	}
	if status >= 300 {
		resp.Location = header.Get("Location")
	}
	if resp.Kind == BodyJSON && len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		return nil, &Error{Kind: KindDecode, Method: method, Path: path, Status: status,
			Body: truncate(body), Err: fmt.Errorf("invalid JSON body")}
	}
	return resp, nil
}

// Decode unmarshals a JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return &Error{Kind: KindDecode, Method: r.Method, Path: r.Path, Status: r.Status, Err: io.ErrUnexpectedEOF}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Kind: KindDecode, Method: r.Method, Path: r.Path, Status: r.Status, Body: truncate(r.Body), Err: err}
	}
	return nil
}

func (r *Response) Text() string {
	return string(r.Body)
}

func (r *Response) Redirect() bool {
	return r.Status >= 300 && r.Status < 400
}

func bodyKind(contentType string) BodyKind {
	if contentType == "" {
		return BodyRaw
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return BodyRaw
	}
	switch {
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return BodyJSON
	case strings.HasPrefix(mediaType, "text/"):
		return BodyText
	default:
		return BodyRaw
	}
}

// encodeBody turns a request body into bytes. Byte slices, strings and
// readers go out as-is; anything else is sent as JSON.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/octet-stream", nil
	case string:
		return []byte(b), "text/plain; charset=utf-8", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		return data, "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return data, "application/json", nil
	}
}
