package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartsbuilder/widgets/widget"
	"github.com/yaoapp/kun/log"
)

// DefaultTimeout the default request timeout
const DefaultTimeout = 30 * time.Second

// New create a fetch client
func New(options ...Option) *Client {
	client := &Client{header: http.Header{}, timeout: DefaultTimeout}
	for _, option := range options {
		option(client)
	}
	if client.header.Get("Accept") == "" {
		client.header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	}
	if client.transport == nil {
		client.transport = client.newTransport()
	}
	return client
}

// WithHeader add a request header
func WithHeader(name, value string) Option {
	return func(c *Client) { c.header.Add(name, value) }
}

// WithTimeout set the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithBase resolve relative data sources against the base URL or directory
func WithBase(base string) Option {
	return func(c *Client) { c.base = base }
}

// WithLocalFiles read file:// and absolute paths anywhere on the host.
// Without it local files are read from the base directory only
func WithLocalFiles() Option {
	return func(c *Client) { c.local = true }
}

// WithResolver dial http(s) hosts through the given resolver
func WithResolver(resolver *Resolver) Option {
	return func(c *Client) { c.resolver = resolver }
}

// WithInsecure skip tls verification
func WithInsecure() Option {
	return func(c *Client) { c.insecure = true }
}

// WithTransport use the given round tripper
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) { c.transport = transport }
}

// Fetch load the uri. Every failure is a *widget.DataLoadError
func (c *Client) Fetch(ctx context.Context, uri string) (*Payload, error) {
	target := c.resolve(uri)

	var payload *Payload
	var err error
	switch {
	case strings.HasPrefix(target, "data:"):
		payload, err = decodeDataURI(target)
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		payload, err = c.get(ctx, target)
	case strings.HasPrefix(target, "file://"):
		payload, err = c.readLocal(strings.TrimPrefix(target, "file://"))
	case strings.Contains(target, "://"):
		err = fmt.Errorf("scheme does not support")
	default:
		payload, err = c.readLocal(target)
	}

	if err != nil {
		log.Trace("[Fetch] %s: %s", uri, err.Error())
		return nil, widget.LoadError(uri, err)
	}
	payload.URI = uri
	log.Trace("[Fetch] %s %d bytes", uri, len(payload.Body))
	return payload, nil
}

func (c *Client) resolve(uri string) string {
	if c.base == "" || strings.Contains(uri, ":") {
		return uri
	}
	if strings.HasPrefix(c.base, "http://") || strings.HasPrefix(c.base, "https://") {
		base, err := url.Parse(c.base)
		if err != nil {
			return uri
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return uri
		}
		return base.ResolveReference(ref).String()
	}
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(strings.TrimPrefix(c.base, "file://"), uri)
}

func (c *Client) get(ctx context.Context, target string) (*Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.header.Clone()

	client := &http.Client{Transport: c.transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return &Payload{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (c *Client) newTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	tr := &http.Transport{
		DialContext:     dialer.DialContext,
		Proxy:           proxy,
		IdleConnTimeout: 90 * time.Second,
	}
	if c.resolver != nil {
		tr.DialContext = c.resolver.DialContext()
	}
	if c.insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return tr
}

// proxy read HTTP(S)_PROXY, upper case first
func proxy(req *http.Request) (*url.URL, error) {
	name := "HTTP_PROXY"
	if req.URL.Scheme == "https" {
		name = "HTTPS_PROXY"
	}
	value := os.Getenv(name)
	if value == "" {
		value = os.Getenv(strings.ToLower(name))
	}
	if value == "" {
		return nil, nil
	}
	return url.Parse(value)
}

// readLocal read a local file, inside the base directory unless local files are allowed
func (c *Client) readLocal(path string) (*Payload, error) {
	if c.local {
		return readFile(path)
	}

	dir := c.baseDir()
	if dir == "" {
		return nil, fmt.Errorf("local files are not allowed without a base directory")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside of %s", path, dir)
	}
	return readFile(abs)
}

func (c *Client) baseDir() string {
	if c.base == "" || strings.HasPrefix(c.base, "http://") || strings.HasPrefix(c.base, "https://") {
		return ""
	}
	return strings.TrimPrefix(c.base, "file://")
}

func readFile(path string) (*Payload, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Payload{Body: body, ContentType: contentTypeByExt(path)}, nil
}

func contentTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".csv":
		return "text/csv"
	}
	return ""
}
