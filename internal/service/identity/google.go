package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// TokenValidator checks an ID token's signature against Google's published
// keys and returns its payload. *idtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google ID tokens issued to clientID.
type GoogleVerifier struct {
	clientID  string
	validator TokenValidator
}

// GoogleOption configures a GoogleVerifier.
type GoogleOption func(*googleOptions)

type googleOptions struct {
	validator  TokenValidator
	httpClient *http.Client
}

// WithValidator replaces the idtoken validator.
func WithValidator(v TokenValidator) GoogleOption {
	return func(o *googleOptions) { o.validator = v }
}

// WithHTTPClient sets the client used to fetch Google's signing keys.
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(o *googleOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// NewGoogleVerifier creates a verifier accepting tokens whose audience is clientID.
func NewGoogleVerifier(ctx context.Context, clientID string, opts ...GoogleOption) (*GoogleVerifier, error) {
	o := googleOptions{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.validator == nil {
		v, err := idtoken.NewValidator(ctx, idtoken.WithHTTPClient(o.httpClient))
		if err != nil {
			return nil, fmt.Errorf("create id token validator: %w", err)
		}
		o.validator = v
	}
	return &GoogleVerifier{clientID: clientID, validator: o.validator}, nil
}

// Verify implements Verifier. Signature, audience and expiry are checked by
// the validator; the issuer and subject are checked here.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (Claims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Claims{}, ErrInvalidCredential
	}

	payload, err := v.validator.Validate(ctx, credential, v.clientID)
	if err != nil {
		// 拉取公钥失败不算凭证无效
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Claims{}, fmt.Errorf("validate id token: %w", err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if !googleIssuers[payload.Issuer] {
		return Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, payload.Issuer)
	}
	if payload.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}

	return Claims{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
