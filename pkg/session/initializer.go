package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/vango-dev/shell/pkg/protocol"
)

// ErrUnexpectedContentType is wrapped by an InitializationError when the
// init endpoint answers with anything but application/json.
var ErrUnexpectedContentType = errors.New("session: unexpected content type")

// Initializer creates server-side UI sessions.
type Initializer struct {
	baseURL  *url.URL
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// InitializerOption configures an Initializer.
type InitializerOption func(*Initializer)

// WithHTTPClient sets the HTTP client used for the init request.
func WithHTTPClient(client *http.Client) InitializerOption {
	return func(i *Initializer) {
		if client != nil {
			i.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) InitializerOption {
	return func(i *Initializer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInitializer creates an Initializer for the application at baseURL.
// A missing trailing slash is added so the endpoint resolves below it.
func NewInitializer(baseURL string, opts ...InitializerOption) (*Initializer, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("session: parse base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	endpoint := base.ResolveReference(&url.URL{Path: protocol.InitPath})
	q := endpoint.Query()
	q.Set(protocol.RequestTypeParam, protocol.RequestTypeInit)
	endpoint.RawQuery = q.Encode()

	i := &Initializer{
		baseURL:  base,
		endpoint: endpoint.String(),
		client:   http.DefaultClient,
		logger:   slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Endpoint returns the init URL.
func (i *Initializer) Endpoint() string {
	return i.endpoint
}

// Initialize performs the init request. Each call issues exactly one
// request; callers that need once-only semantics cache the result.
func (i *Initializer) Initialize(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.endpoint, nil)
	if err != nil {
		return nil, &InitializationError{URL: i.endpoint, Err: err}
	}
	req.Header.Set("Accept", protocol.ContentTypeJSON)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &InitializationError{URL: i.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, protocol.DefaultMaxAllocation))
	contentType := resp.Header.Get("Content-Type")
	fail := func(cause error) error {
		return &InitializationError{
			URL:         i.endpoint,
			Status:      resp.StatusCode,
			ContentType: contentType,
			Body:        truncateBody(body),
			Err:         cause,
		}
	}
	if err != nil {
		return nil, fail(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(nil)
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != protocol.ContentTypeJSON {
		return nil, fail(ErrUnexpectedContentType)
	}

	cfg, err := protocol.DecodeInitResponse(body)
	if err != nil {
		return nil, fail(err)
	}

	i.logger.Debug("session initialized",
		"app_id", cfg.AppID,
		"production", cfg.ProductionMode)

	base := *i.baseURL
	return &Session{
		ProductionMode: cfg.ProductionMode,
		AppID:          cfg.AppID,
		UIDL:           cfg.UIDL,
		BaseURL:        &base,
	}, nil
}
