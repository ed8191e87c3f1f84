package coreapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Product scopes a subscription key and a bearer token.
type Product string

const (
	ProductCollection   Product = config.ProductCollection
	ProductDisbursement Product = config.ProductDisbursement

	cibaGrantType = "urn:openid:params:grant-type:ciba"
)

// Token is a bearer token, valid iff now < ExpiresAt.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

func (t Token) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

type Credentials struct {
	BaseURL string
	APIUser string
	APIKey  string
}

type tokenCache struct {
	mu        sync.Mutex
	token     Token
	product   Product
	authReqID string
}

func (c *tokenCache) reset() {
	c.mu.Lock()
	c.token = Token{}
	c.product = ""
	c.authReqID = ""
	c.mu.Unlock()
}

// TokenManager owns the api identity of one account and its three token caches. Each cache
// has its own lock and expiry clock.
type TokenManager struct {
	cfg     config.MomoConfig
	exec    *Executor
	logger  *logrus.Entry
	metrics *Metrics
	now     func() time.Time

	credMu sync.RWMutex
	creds  Credentials

	collection   tokenCache
	disbursement tokenCache
	oauth        tokenCache
}

// NewTokenManager creates a manager, picking up pre-provisioned credentials from cfg.
func NewTokenManager(cfg config.MomoConfig, opts ...Option) *TokenManager {
	o := newOptions(cfg.RequestTimeout, opts...)
	return &TokenManager{
		cfg:     cfg,
		exec:    newExecutor(cfg, o),
		logger:  o.logger.WithField("component", "momo-token-manager"),
		metrics: o.metrics,
		now:     o.now,
		creds: Credentials{
			BaseURL: cfg.BaseEndpoint(),
			APIUser: cfg.APIUser,
			APIKey:  cfg.APIKey,
		},
	}
}

// CreateAPIUser registers a freshly generated api user id with the provider and stores it.
func (m *TokenManager) CreateAPIUser(ctx context.Context, subscriptionKey string) (string, error) {
	const op = "create api user"

	userID := uuid.NewString()
	_, err := m.exec.Do(ctx, Request{
		Op:              op,
		Method:          http.MethodPost,
		Path:            "/v1_0/apiuser",
		SubscriptionKey: subscriptionKey,
		ReferenceID:     userID,
		JSON:            models.APIUser{ProviderCallbackHost: m.cfg.CallbackHost},
	})
	if err != nil {
		return "", provisioningError(err)
	}

	m.setCredentials(userID, "")
	m.logger.WithField("apiUser", userID).Info("api user created")
	return userID, nil
}

// CreateAPIKey requests a key for the stored api user and stores it.
func (m *TokenManager) CreateAPIKey(ctx context.Context, subscriptionKey string) (string, error) {
	const op = "create api key"

	userID := m.Credentials().APIUser
	if userID == "" {
		return "", &Error{Op: op, Kind: ErrProvisioning, Message: "api user has not been created"}
	}

	resp, err := m.exec.Do(ctx, Request{
		Op:              op,
		Method:          http.MethodPost,
		Path:            fmt.Sprintf("/v1_0/apiuser/%s/apikey", userID),
		SubscriptionKey: subscriptionKey,
	})
	if err != nil {
		return "", provisioningError(err)
	}

	var key models.APIKey
	if err = Decode(op, resp, &key); err != nil {
		return "", err
	}
	if key.APIKey == "" {
		return "", &Error{Op: op, Kind: ErrProvisioning, StatusCode: resp.StatusCode, Message: "provider returned an empty api key"}
	}

	m.setCredentials(userID, key.APIKey)
	m.logger.WithField("apiUser", userID).Info("api key created")
	return key.APIKey, nil
}

// APIUser fetches the provider's view of the stored api user.
func (m *TokenManager) APIUser(ctx context.Context, subscriptionKey string) (*models.APIUserInfo, error) {
	const op = "get api user"

	userID := m.Credentials().APIUser
	if userID == "" {
		return nil, &Error{Op: op, Kind: ErrProvisioning, Message: "api user has not been created"}
	}

	resp, err := m.exec.Do(ctx, Request{
		Op:              op,
		Method:          http.MethodGet,
		Path:            "/v1_0/apiuser/" + userID,
		SubscriptionKey: subscriptionKey,
	})
	if err != nil {
		return nil, err
	}

	var info models.APIUserInfo
	if err = Decode(op, resp, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetCredentials installs an api user and key issued outside of this process.
func (m *TokenManager) SetCredentials(apiUser, apiKey string) {
	m.setCredentials(apiUser, apiKey)
}

func (m *TokenManager) setCredentials(apiUser, apiKey string) {
	m.credMu.Lock()
	m.creds.APIUser = apiUser
	m.creds.APIKey = apiKey
	m.credMu.Unlock()

	// tokens issued for a previous identity must not be reused
	m.collection.reset()
	m.disbursement.reset()
	m.oauth.reset()
}

func (m *TokenManager) Credentials() Credentials {
	m.credMu.RLock()
	defer m.credMu.RUnlock()
	return m.creds
}

func (m *TokenManager) IsProvisioned() bool {
	creds := m.Credentials()
	return creds.APIUser != "" && creds.APIKey != ""
}

func (m *TokenManager) CollectionToken(ctx context.Context) (Token, error) {
	return m.Token(ctx, ProductCollection)
}

func (m *TokenManager) DisbursementToken(ctx context.Context) (Token, error) {
	return m.Token(ctx, ProductDisbursement)
}

// Token returns the cached token of product, refreshing it first when it has expired.
func (m *TokenManager) Token(ctx context.Context, product Product) (Token, error) {
	op := fmt.Sprintf("issue %s token", product)

	cache, err := m.cacheFor(product)
	if err != nil {
		return Token{}, ValidationError(op, err)
	}

	creds := m.Credentials()
	if creds.APIUser == "" || creds.APIKey == "" {
		return Token{}, AuthError(op, "token manager is not provisioned")
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.token.ValidAt(m.now()) {
		return cache.token, nil
	}

	resp, err := m.exec.Do(ctx, Request{
		Op:              op,
		Method:          http.MethodPost,
		Path:            fmt.Sprintf("/%s/token/", product),
		SubscriptionKey: m.cfg.SubscriptionKey(string(product)),
		BasicUser:       creds.APIUser,
		BasicPassword:   creds.APIKey,
	})
	if err == nil {
		cache.token, err = m.parseToken(op, resp)
	}
	m.metrics.observeRefresh(product, err)
	if err != nil {
		m.logger.WithError(err).WithField("product", product).Warn("could not refresh bearer token")
		return Token{}, err
	}

	m.logger.WithField("product", product).WithField("expiresAt", cache.token.ExpiresAt).Info("bearer token refreshed")
	return cache.token, nil
}

// OAuthToken exchanges an approved consent for an oauth token at the oauth endpoint of
// product. The token is cached against the product and auth_req_id it was issued for.
func (m *TokenManager) OAuthToken(ctx context.Context, product Product, authReqID string) (Token, error) {
	const op = "exchange consent"

	if authReqID == "" {
		return Token{}, ValidationError(op, errors.New("auth_req_id is required"))
	}
	if _, err := m.cacheFor(product); err != nil {
		return Token{}, ValidationError(op, err)
	}

	creds := m.Credentials()
	if creds.APIUser == "" || creds.APIKey == "" {
		return Token{}, AuthError(op, "token manager is not provisioned")
	}

	m.oauth.mu.Lock()
	defer m.oauth.mu.Unlock()

	if m.oauth.product == product && m.oauth.authReqID == authReqID && m.oauth.token.ValidAt(m.now()) {
		return m.oauth.token, nil
	}

	resp, err := m.exec.Do(ctx, Request{
		Op:              op,
		Method:          http.MethodPost,
		Path:            fmt.Sprintf("/%s/oauth2/token/", product),
		SubscriptionKey: m.cfg.SubscriptionKey(string(product)),
		BasicUser:       creds.APIUser,
		BasicPassword:   creds.APIKey,
		Form:            models.CIBAGrant{GrantType: cibaGrantType, AuthReqID: authReqID},
	})
	var token Token
	if err == nil {
		token, err = m.parseToken(op, resp)
	}
	m.metrics.observeRefresh("oauth", err)
	if err != nil {
		if code := StatusCodeOf(err); code >= 400 && code < 500 {
			return Token{}, Reclassify(err, ErrAuth, "consent was not approved or has expired")
		}
		return Token{}, err
	}

	m.oauth.token = token
	m.oauth.product = product
	m.oauth.authReqID = authReqID
	return token, nil
}

// Invalidate drops the cached token of product so the next call refreshes it.
func (m *TokenManager) Invalidate(product Product) {
	if cache, err := m.cacheFor(product); err == nil {
		cache.reset()
	}
}

func (m *TokenManager) cacheFor(product Product) (*tokenCache, error) {
	switch product {
	case ProductCollection:
		return &m.collection, nil
	case ProductDisbursement:
		return &m.disbursement, nil
	default:
		return nil, fmt.Errorf("unknown product %q", product)
	}
}

func (m *TokenManager) parseToken(op string, resp *Response) (Token, error) {
	var at models.AccessToken
	if err := Decode(op, resp, &at); err != nil {
		return Token{}, err
	}
	if at.AccessToken == "" {
		return Token{}, &Error{Op: op, Kind: ErrAuth, StatusCode: resp.StatusCode, Message: "provider issued an empty token"}
	}
	return Token{
		Value:     at.AccessToken,
		ExpiresAt: m.now().Add(time.Duration(at.ExpiresIn) * time.Second),
	}, nil
}

// provisioningError turns provider rejections into ErrProvisioning, transport failures
// are kept as they are.
func provisioningError(err error) error {
	if StatusCodeOf(err) == 0 {
		return err
	}
	return Reclassify(err, ErrProvisioning, "")
}
