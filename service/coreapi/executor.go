package coreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/models"
	formcodec "github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus"
)

const (
	HeaderTargetEnvironment = "X-Target-Environment"
	HeaderSubscriptionKey   = "Ocp-Apim-Subscription-Key"
	HeaderReferenceID       = "X-Reference-Id"
	HeaderCallbackURL       = "X-Callback-Url"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Request describes one provider call. JSON and Form are mutually exclusive bodies.
type Request struct {
	Op     string
	Method string
	Path   string

	SubscriptionKey string
	BearerToken     string
	BasicUser       string
	BasicPassword   string

	// ReferenceID is set on state creating calls.
	ReferenceID string
	CallbackURL string
	Header      map[string]string

	JSON any
	Form any
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Executor issues provider calls and normalises failures into *Error values.
type Executor struct {
	cfg     config.MomoConfig
	client  *http.Client
	logger  *logrus.Entry
	metrics *Metrics
	now     func() time.Time
	forms   *formcodec.Encoder
}

func NewExecutor(cfg config.MomoConfig, opts ...Option) *Executor {
	o := newOptions(cfg.RequestTimeout, opts...)
	return newExecutor(cfg, o)
}

func newExecutor(cfg config.MomoConfig, o *options) *Executor {
	return &Executor{
		cfg:     cfg,
		client:  o.httpClient,
		logger:  o.logger.WithField("component", "momo-executor"),
		metrics: o.metrics,
		now:     o.now,
		forms:   formcodec.NewEncoder(),
	}
}

// Do sends the request. Transport failures and non 2xx answers are returned as *Error.
func (e *Executor) Do(ctx context.Context, r Request) (*Response, error) {
	body, contentType, err := e.encodeBody(r)
	if err != nil {
		return nil, &Error{Op: r.Op, Kind: ErrValidation, Message: "could not encode request body", Err: err}
	}

	url := e.cfg.BaseEndpoint() + r.Path
	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		return nil, &Error{Op: r.Op, Kind: ErrValidation, Err: err}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.cfg.TargetEnvironment != "" {
		req.Header.Set(HeaderTargetEnvironment, e.cfg.TargetEnvironment)
	}
	if r.SubscriptionKey != "" {
		req.Header.Set(HeaderSubscriptionKey, r.SubscriptionKey)
	}
	if r.ReferenceID != "" {
		req.Header.Set(HeaderReferenceID, r.ReferenceID)
	}
	if r.CallbackURL != "" {
		req.Header.Set(HeaderCallbackURL, r.CallbackURL)
	}
	switch {
	case r.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+r.BearerToken)
	case r.BasicUser != "":
		req.SetBasicAuth(r.BasicUser, r.BasicPassword)
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	logger := e.logger.WithField("op", r.Op).WithField("method", r.Method).WithField("path", r.Path)

	start := e.now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.metrics.observeRequest(r.Op, 0, e.now().Sub(start))
		logger.WithError(err).Warn("provider call failed")
		return nil, &Error{Op: r.Op, Kind: ErrConnection, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.WithError(closeErr).Debug("failed to close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	e.metrics.observeRequest(r.Op, resp.StatusCode, e.now().Sub(start))
	if err != nil {
		return nil, &Error{Op: r.Op, Kind: ErrConnection, StatusCode: resp.StatusCode, Err: err}
	}

	logger = logger.WithField("status", resp.StatusCode)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Debug("provider call completed")
		return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
	}

	apiErr := parseFailure(r.Op, resp.StatusCode, respBody)
	logger.WithField("code", apiErr.Code).WithField("message", apiErr.Message).Info("provider call rejected")
	return nil, apiErr
}

func (e *Executor) encodeBody(r Request) (io.Reader, string, error) {
	switch {
	case r.JSON != nil:
		payload, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(payload), contentTypeJSON, nil
	case r.Form != nil:
		values, err := e.forms.Encode(r.Form)
		if err != nil {
			return nil, "", err
		}
		return strings.NewReader(values.Encode()), contentTypeForm, nil
	case r.Method == http.MethodPost || r.Method == http.MethodPut:
		return http.NoBody, contentTypeJSON, nil
	default:
		return http.NoBody, "", nil
	}
}

// parseFailure reads the provider error body, falling back to a transport failure that keeps
// the raw status and body when nothing readable is found.
func parseFailure(op string, statusCode int, body []byte) *Error {
	var er models.ErrorResponse
	parsed := json.Unmarshal(body, &er) == nil &&
		(er.Code != "" || er.Message != "" || er.Error != "" || er.ErrorDescription != "")

	apiErr := &Error{
		Op:         op,
		Kind:       classify(statusCode, parsed),
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if parsed {
		apiErr.Code = firstNonEmpty(er.Code, er.Error)
		apiErr.Message = firstNonEmpty(er.Message, er.ErrorDescription)
	}
	return apiErr
}

// Decode unmarshals a successful response body into out.
func Decode(op string, resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{
			Op:         op,
			Kind:       ErrConnection,
			StatusCode: resp.StatusCode,
			Message:    "could not decode provider response",
			Body:       string(resp.Body),
			Err:        fmt.Errorf("unmarshal: %w", err),
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
