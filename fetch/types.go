package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/chartsbuilder/widgets/widget"
	"github.com/gabriel-vasile/mimetype"
	jsoniter "github.com/json-iterator/go"
)

// Fetcher load the payload a data source points to
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Payload, error)
}

// FetcherFunc adapt a function to a Fetcher
type FetcherFunc func(ctx context.Context, uri string) (*Payload, error)

// Fetch call f
func (f FetcherFunc) Fetch(ctx context.Context, uri string) (*Payload, error) {
	return f(ctx, uri)
}

// Payload the raw bytes of a data source
type Payload struct {
	URI         string `json:"uri"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

// Client fetch http(s), file and data URIs
type Client struct {
	header    http.Header
	timeout   time.Duration
	base      string
	local     bool
	insecure  bool
	resolver  *Resolver
	transport http.RoundTripper
}

// Option the client option
type Option func(*Client)

// JSON decode the body into v. A decode failure is a MalformedDataError
func (p *Payload) JSON(v interface{}) error {
	if err := jsoniter.Unmarshal(p.Body, v); err != nil {
		return widget.Malformed(p.URI, "invalid json: %s", err.Error())
	}
	return nil
}

// Value decode the body into a generic value
func (p *Payload) Value() (interface{}, error) {
	var v interface{}
	err := p.JSON(&v)
	return v, err
}

// Text the body as a string
func (p *Payload) Text() string {
	return string(p.Body)
}

// MIME the media type, from the body when the source did not declare one
func (p *Payload) MIME() string {
	if p.ContentType != "" {
		return p.ContentType
	}
	return mimetype.Detect(p.Body).String()
}

// IsText check if the body is textual, whatever the declared type
func (p *Payload) IsText() bool {
	for m := mimetype.Detect(p.Body); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return strings.HasPrefix(mimetype.Detect(p.Body).String(), "text/")
}
