// package services implements the HTTP client for the clip API
package services

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/desertthunder/clipx/internal/shared"
)

// RequestIDHeader carries a per-request identifier for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// TokenFunc returns the credential to attach to a request, or "" for none.
//
// It is called once per request so a login or logout is picked up by the next request.
type TokenFunc func() string

// credentialTransport attaches the current credential and a request id to every outgoing request.
//
// An Authorization header already present on the request is left alone, so per-request overrides win.
type credentialTransport struct {
	base  http.RoundTripper
	token TokenFunc
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, shared.GenerateID())
	}

	if r.Header.Get("Authorization") == "" && t.token != nil {
		if tok := t.token(); tok != "" {
			(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(r)
		}
	}

	return t.base.RoundTrip(r)
}

// withCredentials returns a copy of client whose transport is wrapped by [credentialTransport].
func withCredentials(client *http.Client, token TokenFunc) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	c := *client

	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = &credentialTransport{base: base, token: token}
	return &c
}
