package safehaven

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/patrickmn/go-cache"
	"github.com/tech-arch1tect/paygate/config"
	"github.com/tech-arch1tect/paygate/services/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrUpstream            = errors.New("identity provider request failed")
	ErrInvalidIdentityType = errors.New(`identity type must be "bvn" or "nin"`)
	ErrInvalidNumber       = errors.New("number must be exactly 11 digits")
	ErrMissingIdentity     = errors.New("identityId and otp are required")
)

const (
	tokenCacheKey      = "oauth_token"
	tokenExpiryLeeway  = 60 * time.Second
	clientAssertionJWT = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	maxTokenAttempts   = 3
)

var elevenDigits = regexp.MustCompile(`^\d{11}$`)

type Client struct {
	config     config.SafeHavenConfig
	httpClient *http.Client
	tokens     *cache.Cache
	group      singleflight.Group
	newBackOff func() backoff.BackOff
	logger     *logging.Service
}

func NewClient(cfg *config.Config, logger *logging.Service) *Client {
	return &Client{
		config:     cfg.SafeHaven,
		httpClient: &http.Client{Timeout: cfg.SafeHaven.Timeout},
		tokens:     cache.New(cache.NoExpiration, 5*time.Minute),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     logger.With(zap.String("component", "safehaven")),
	}
}

// SendOTP starts a BVN or NIN lookup; the provider texts an OTP to the phone
// on record and returns the identity id needed to validate it.
func (c *Client) SendOTP(ctx context.Context, identityType IdentityType, number string) (*OTPResponse, error) {
	if identityType != IdentityBVN && identityType != IdentityNIN {
		return nil, ErrInvalidIdentityType
	}
	if !elevenDigits.MatchString(number) {
		return nil, ErrInvalidNumber
	}

	var out OTPResponse
	err := c.post(ctx, "/identity/v2", otpRequest{
		Type:               identityType,
		Async:              true,
		Number:             number,
		DebitAccountNumber: c.config.DebitAccountNumber,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ValidateIdentity(ctx context.Context, identityType IdentityType, identityID, otp string) (*VerifyResponse, error) {
	if identityType != IdentityBVN && identityType != IdentityNIN {
		return nil, ErrInvalidIdentityType
	}
	if identityID == "" || otp == "" {
		return nil, ErrMissingIdentity
	}

	var out VerifyResponse
	err := c.post(ctx, "/identity/v2/validate", validateRequest{
		Type:       identityType,
		IdentityID: identityID,
		OTP:        otp,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSubAccount(ctx context.Context, req SubAccountRequest) (*SubAccountResponse, error) {
	if req.IdentityType != IdentityBVN && req.IdentityType != IdentityNIN {
		return nil, ErrInvalidIdentityType
	}

	var out SubAccountResponse
	if err := c.post(ctx, "/accounts/v2/subaccount", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	status, err := c.send(ctx, path, body, token, out)
	if err != nil {
		if status == http.StatusUnauthorized {
			c.tokens.Delete(tokenCacheKey)
		}
		if c.logger != nil {
			c.logger.Error("identity provider call failed", zap.String("path", path), zap.Int("status", status), zap.Error(err))
		}
		return err
	}

	return nil
}

func (c *Client) token(ctx context.Context) (*Token, error) {
	if cached, ok := c.cachedToken(); ok {
		return cached, nil
	}

	// The fetch is shared by every waiting caller, so it must outlive the
	// request that happened to start it.
	results := c.group.DoChan(tokenCacheKey, func() (any, error) {
		if cached, ok := c.cachedToken(); ok {
			return cached, nil
		}

		fetchCtx, cancel := c.fetchContext(ctx)
		defer cancel()

		token, err := backoff.Retry(fetchCtx, func() (*Token, error) {
			return c.fetchToken(fetchCtx)
		}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(maxTokenAttempts))
		if err != nil {
			return nil, err
		}

		if c.config.TokenCache {
			if ttl := time.Duration(token.ExpiresIn)*time.Second - tokenExpiryLeeway; ttl > 0 {
				c.tokens.Set(tokenCacheKey, token, ttl)
			}
		}
		return token, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			if c.logger != nil {
				c.logger.Error("failed to obtain provider token", zap.Error(res.Err))
			}
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	}
}

func (c *Client) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if c.config.Timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, c.config.Timeout*maxTokenAttempts)
}

func (c *Client) cachedToken() (*Token, bool) {
	if !c.config.TokenCache {
		return nil, false
	}
	if cached, ok := c.tokens.Get(tokenCacheKey); ok {
		return cached.(*Token), true
	}
	return nil, false
}

func (c *Client) fetchToken(ctx context.Context) (*Token, error) {
	var token Token
	status, err := c.send(ctx, "/oauth2/token", tokenRequest{
		GrantType:           "client_credentials",
		ClientAssertionType: clientAssertionJWT,
		ClientID:            c.config.ClientID,
		ClientAssertion:     c.config.ClientAssertion,
	}, nil, &token)
	if err != nil {
		if status >= 400 && status < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, backoff.Permanent(fmt.Errorf("%w: token response without access_token", ErrUpstream))
	}
	return &token, nil
}

func (c *Client) send(ctx context.Context, path string, body any, token *Token, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != nil {
		req.Header.Set("ClientID", token.IBSClientID)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s: reading body: %v", ErrUpstream, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %s: decoding body: %v", ErrUpstream, path, err)
	}

	return resp.StatusCode, nil
}
