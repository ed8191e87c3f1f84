package coreapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const minPollInterval = 10 * time.Millisecond

var errStillPending = errors.New("transaction is still pending")

// API binds the executor to one product: its subscription key and its bearer token.
type API struct {
	cfg     config.MomoConfig
	exec    *Executor
	tokens  TokenProvider
	product Product
	logger  *logrus.Entry
	sleep   func(time.Duration) <-chan time.Time
}

func NewAPI(cfg config.MomoConfig, tokens TokenProvider, product Product, opts ...Option) *API {
	o := newOptions(cfg.RequestTimeout, opts...)
	return &API{
		cfg:     cfg,
		exec:    newExecutor(cfg, o),
		tokens:  tokens,
		product: product,
		logger:  o.logger.WithField("product", product),
		sleep:   o.sleep,
	}
}

func (a *API) Config() config.MomoConfig {
	return a.cfg
}

func (a *API) Logger() *logrus.Entry {
	return a.logger
}

// Authorize checks the token manager is provisioned and returns a valid bearer token.
func (a *API) Authorize(ctx context.Context, op string) (Token, error) {
	if a.tokens == nil || !a.tokens.IsProvisioned() {
		return Token{}, AuthError(op, "token manager is not provisioned")
	}
	return a.tokens.Token(ctx, a.product)
}

// ConsentToken returns the oauth token the product issued for an approved consent.
func (a *API) ConsentToken(ctx context.Context, op, authReqID string) (Token, error) {
	if a.tokens == nil || !a.tokens.IsProvisioned() {
		return Token{}, AuthError(op, "token manager is not provisioned")
	}
	return a.tokens.OAuthToken(ctx, a.product, authReqID)
}

// Send issues r with the product subscription key and bearer token.
func (a *API) Send(ctx context.Context, r Request) (*Response, error) {
	token, err := a.Authorize(ctx, r.Op)
	if err != nil {
		return nil, err
	}
	return a.SendWithToken(ctx, r, token)
}

// SendWithToken issues r with a token obtained elsewhere, such as a consent bound oauth token.
func (a *API) SendWithToken(ctx context.Context, r Request, token Token) (*Response, error) {
	r.SubscriptionKey = a.cfg.SubscriptionKey(string(a.product))
	r.BearerToken = token.Value
	return a.exec.Do(ctx, r)
}

// Submit posts a state creating request under a freshly generated reference id. The
// provider accepts asynchronously, so the reference id is what the caller gets back.
func (a *API) Submit(ctx context.Context, op, path string, body any) (string, error) {
	reference := uuid.NewString()
	_, err := a.Send(ctx, Request{
		Op:          op,
		Method:      http.MethodPost,
		Path:        path,
		ReferenceID: reference,
		CallbackURL: a.cfg.CallbackURL,
		JSON:        body,
	})
	if err != nil {
		return "", err
	}

	a.logger.WithField("op", op).WithField("reference", reference).Info("request accepted by provider")
	return reference, nil
}

type rawKeeper interface {
	SetRaw(body []byte)
}

// Fetch reads path and decodes the body into out.
func (a *API) Fetch(ctx context.Context, op, path string, out any) error {
	resp, err := a.Send(ctx, Request{Op: op, Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}
	if err = Decode(op, resp, out); err != nil {
		return err
	}
	if keeper, ok := out.(rawKeeper); ok {
		keeper.SetRaw(resp.Body)
	}
	return nil
}

// Status validates reference, waits the settle delay once and queries path/reference.
func (a *API) Status(ctx context.Context, op, path, reference string) (*models.TransactionStatus, error) {
	if err := CheckReference(op, reference); err != nil {
		return nil, err
	}
	if _, err := a.Authorize(ctx, op); err != nil {
		return nil, err
	}
	if err := a.Settle(ctx, op); err != nil {
		return nil, err
	}
	return a.fetchStatus(ctx, op, path, reference)
}

// Wait polls path/reference with exponential backoff until the status is terminal, the
// poll timeout elapses or ctx is done. The last status seen is returned with the error.
func (a *API) Wait(ctx context.Context, op, path, reference string) (*models.TransactionStatus, error) {
	if err := CheckReference(op, reference); err != nil {
		return nil, err
	}
	if _, err := a.Authorize(ctx, op); err != nil {
		return nil, err
	}

	if a.cfg.StatusPollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.StatusPollTimeout)
		defer cancel()
	}

	if err := a.Settle(ctx, op); err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = max(a.cfg.StatusSettleDelay, minPollInterval)
	b.MaxElapsedTime = 0

	logger := a.logger.WithField("op", op).WithField("reference", reference)

	var last *models.TransactionStatus
	poll := func() error {
		st, err := a.fetchStatus(ctx, op, path, reference)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConnection) {
				return err
			}
			return backoff.Permanent(err)
		}
		last = st
		if !st.IsTerminal() {
			return errStillPending
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.WithError(err).WithField("retryIn", next).Debug("transaction not settled yet")
	}

	err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && !errors.Is(err, ErrConnection) {
			return last, err
		}
		return last, &Error{Op: op, Kind: ErrConnection, Message: "transaction did not reach a terminal status", Err: err}
	}
	return last, nil
}

// Settle blocks for the configured settle delay, giving the provider time to record an
// asynchronously accepted transaction.
func (a *API) Settle(ctx context.Context, op string) error {
	delay := a.cfg.StatusSettleDelay
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return &Error{Op: op, Kind: ErrConnection, Message: "cancelled while waiting for settlement", Err: ctx.Err()}
	case <-a.sleep(delay):
		return nil
	}
}

// fetchStatus keeps not found and authentication failures, every other failure of a status
// lookup is reported as a connection failure.
func (a *API) fetchStatus(ctx context.Context, op, path, reference string) (*models.TransactionStatus, error) {
	var st models.TransactionStatus
	err := a.Fetch(ctx, op, path+"/"+reference, &st)
	if err == nil {
		return &st, nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAuth) || errors.Is(err, ErrConnection) {
		return nil, err
	}
	return nil, Reclassify(err, ErrConnection, "")
}
