package oai

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/twphl/ddb-harvester/pkg/config"
	errs "github.com/twphl/ddb-harvester/pkg/errors"
	"github.com/twphl/ddb-harvester/pkg/logger"
	"github.com/twphl/ddb-harvester/pkg/retry"
)

// Client is an OAI-PMH client bound to a single repository endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	prefix     string
	userAgent  string
	retrier    *retry.OAIRetrier
	logger     logger.Logger
}

// NewClient creates a new client for the configured endpoint
func NewClient(cfg config.EndpointConfig, maxRetries int, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		endpoint:  cfg.BaseURL,
		prefix:    cfg.MetadataPrefix,
		userAgent: cfg.UserAgent,
		retrier:   retry.NewOAIRetrier(maxRetries, log),
		logger:    log,
	}
}

// Endpoint returns the configured base URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do performs a single HTTP exchange and decodes the envelope
func (c *Client) do(ctx context.Context, req Request) (*Response, []byte, error) {
	rawURL, err := req.URL()
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/xml, application/xml")

	start := time.Now()
	c.logger.DebugWithFields("sending OAI-PMH request", map[string]interface{}{
		"verb": req.Verb,
		"url":  rawURL,
	})

	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.logger.ErrorWithFields("OAI-PMH request failed", map[string]interface{}{
			"verb":     req.Verb,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    httpResp.StatusCode,
		}
	}

	c.logger.DebugWithFields("OAI-PMH request completed", map[string]interface{}{
		"verb":     req.Verb,
		"status":   httpResp.StatusCode,
		"bytes":    len(body),
		"duration": duration,
	})

	if httpResp.StatusCode != http.StatusOK {
		return nil, body, statusError(httpResp.StatusCode)
	}

	var res Response
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, body, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to decode response: %v", err),
			Code:    httpResp.StatusCode,
		}
	}

	if res.Error != nil {
		return &res, body, &errs.OAIError{
			Code:    res.Error.Code,
			Message: res.Error.Message,
		}
	}

	return &res, body, nil
}

// statusError maps an HTTP status to a typed error
func statusError(statusCode int) error {
	var errType errs.ErrorType
	switch {
	case statusCode == http.StatusTooManyRequests:
		errType = errs.ErrorTypeRateLimit
	case statusCode == http.StatusNotFound:
		errType = errs.ErrorTypeNotFound
	case statusCode >= 500:
		errType = errs.ErrorTypeServerError
	default:
		errType = errs.ErrorTypeBadRequest
	}
	return &errs.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected HTTP status %d", statusCode),
		Code:    statusCode,
	}
}

// fetch performs the exchange with bounded retries
func (c *Client) fetch(ctx context.Context, req Request) (*Response, []byte, error) {
	var res *Response
	var body []byte

	err := c.retrier.Do(ctx, func() error {
		var opErr error
		res, body, opErr = c.do(ctx, req)
		return opErr
	})

	return res, body, err
}

// isEmptyResult reports whether err is a protocol error meaning "no results"
func isEmptyResult(err error) bool {
	var oaiErr *errs.OAIError
	return errors.As(err, &oaiErr) && oaiErr.IsEmptyResult()
}

// Identify fetches the repository self-description
func (c *Client) Identify(ctx context.Context) (*Identify, error) {
	res, _, err := c.fetch(ctx, Request{Endpoint: c.endpoint, Verb: "Identify"})
	if err != nil {
		return nil, err
	}
	if res.Identify == nil {
		return nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: "response carries no Identify payload"}
	}
	return res.Identify, nil
}

// ListSets enumerates all sets of the repository, following resumption
// tokens until the listing is exhausted.
func (c *Client) ListSets(ctx context.Context) ([]Set, error) {
	var sets []Set
	var token string

	for {
		req := Request{Endpoint: c.endpoint, Verb: "ListSets", ResumptionToken: token}
		res, _, err := c.fetch(ctx, req)
		if err != nil {
			if isEmptyResult(err) {
				return sets, nil
			}
			return nil, fmt.Errorf("ListSets failed: %w", err)
		}
		if res.ListSets == nil {
			return nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: "response carries no ListSets payload"}
		}

		sets = append(sets, res.ListSets.Sets...)

		if res.ListSets.ResumptionToken.Empty() {
			return sets, nil
		}
		token = res.ListSets.ResumptionToken.Value
	}
}

// ListIdentifiers enumerates all record headers of a set, following
// resumption tokens until the listing is exhausted. The second return value
// is the complete list size the endpoint advertised, or 0.
func (c *Client) ListIdentifiers(ctx context.Context, set string) ([]Header, int, error) {
	var headers []Header
	var token string
	expected := 0

	for {
		req := Request{Endpoint: c.endpoint, Verb: "ListIdentifiers"}
		if token != "" {
			req.ResumptionToken = token
		} else {
			req.MetadataPrefix = c.prefix
			req.Set = set
		}

		res, _, err := c.fetch(ctx, req)
		if err != nil {
			if isEmptyResult(err) {
				return headers, expected, nil
			}
			return nil, 0, fmt.Errorf("ListIdentifiers failed for set %q: %w", set, err)
		}
		if res.ListIdentifiers == nil {
			return nil, 0, &errs.Error{Type: errs.ErrorTypeParsing, Message: "response carries no ListIdentifiers payload"}
		}

		headers = append(headers, res.ListIdentifiers.Headers...)

		if expected == 0 {
			expected = res.ListIdentifiers.ResumptionToken.Size()
		}

		c.logger.InfoWithFields("identifiers listed", map[string]interface{}{
			"set":      set,
			"found":    len(headers),
			"expected": expected,
		})

		if res.ListIdentifiers.ResumptionToken.Empty() {
			if expected == 0 {
				expected = len(headers)
			}
			return headers, expected, nil
		}
		token = res.ListIdentifiers.ResumptionToken.Value
	}
}

// ListRecordsPage fetches a single page of a ListRecords listing. The first
// page of a set is requested with an empty token.
func (c *Client) ListRecordsPage(ctx context.Context, set, token string) (*ListRecords, error) {
	req := Request{Endpoint: c.endpoint, Verb: "ListRecords"}
	if token != "" {
		req.ResumptionToken = token
	} else {
		req.MetadataPrefix = c.prefix
		req.Set = set
	}

	res, _, err := c.fetch(ctx, req)
	if err != nil {
		if isEmptyResult(err) {
			return &ListRecords{}, nil
		}
		return nil, fmt.Errorf("ListRecords failed for set %q: %w", set, err)
	}
	if res.ListRecords == nil {
		return nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: "response carries no ListRecords payload"}
	}

	return res.ListRecords, nil
}

// GetRecord fetches a single record. The returned body is the complete
// response envelope, which is what gets written to disk.
func (c *Client) GetRecord(ctx context.Context, identifier string) (*Record, []byte, error) {
	req := Request{
		Endpoint:       c.endpoint,
		Verb:           "GetRecord",
		MetadataPrefix: c.prefix,
		Identifier:     identifier,
	}

	res, body, err := c.fetch(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("GetRecord failed for %q: %w", identifier, err)
	}
	if res.GetRecord == nil {
		return nil, nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: "response carries no GetRecord payload"}
	}

	return &res.GetRecord.Record, body, nil
}
