// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authentik

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/akinvite/internal/pkg/auth"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/go-resty/resty/v2"
)

// InvitationsPath is the invitation stage endpoint relative to the provider URL.
const InvitationsPath = "/api/v3/stages/invitation/invitations/"

// Client talks to the authentik invitation API. It never retries.
type Client struct {
	baseURL      string
	authProvider auth.IAuthProvider
	client       *resty.Client
}

// NewClient creates a client for the provider at akURL using adminToken as bearer credential.
func NewClient(akURL, adminToken string) *Client {
	client := resty.New().
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{
		baseURL:      strings.TrimRight(akURL, "/"),
		authProvider: auth.NewBearerAuth(adminToken),
		client:       client,
	}
}

// Endpoint returns the invitation collection URL.
func (c *Client) Endpoint() string {
	return c.baseURL + InvitationsPath
}

// Validate validates the configuration
func (c *Client) Validate() error {
	if c.baseURL == "" {
		return errors.New("authentik url is required")
	}
	if _, err := url.ParseRequestURI(c.baseURL); err != nil {
		return fmt.Errorf("invalid authentik url: %w", err)
	}
	return c.authProvider.Validate()
}

// CreateInvitation issues POST <endpoint> with the invitation payload.
func (c *Client) CreateInvitation(ctx context.Context, in CreateRequest) (*Invitation, error) {
	req := auth.Apply(c.client.R().SetContext(ctx), c.authProvider).
		SetHeader("Content-Type", "application/json").
		SetBody(in)

	resp, err := req.Post(c.Endpoint())
	body, err := c.check("POST", resp, err)
	if err != nil {
		return nil, err
	}

	var inv Invitation
	if err := sonic.Unmarshal(body, &inv); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	inv.Raw = string(body)
	return &inv, nil
}

// ListInvitations issues GET <endpoint> with only the bearer header.
func (c *Client) ListInvitations(ctx context.Context) (*Page, error) {
	req := auth.Apply(c.client.R().SetContext(ctx), c.authProvider)

	resp, err := req.Get(c.Endpoint())
	body, err := c.check("GET", resp, err)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := sonic.Unmarshal(body, &page); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	page.Raw = string(body)
	return &page, nil
}

// GetInvitation issues GET <endpoint><pk>/.
func (c *Client) GetInvitation(ctx context.Context, pk string) (*Invitation, error) {
	req := auth.Apply(c.client.R().SetContext(ctx), c.authProvider)

	resp, err := req.Get(c.Endpoint() + url.PathEscape(pk) + "/")
	body, err := c.check("GET", resp, err)
	if err != nil {
		return nil, err
	}

	var inv Invitation
	if err := sonic.Unmarshal(body, &inv); err != nil {
		return nil, &DecodeError{Body: string(body), Err: err}
	}
	inv.Raw = string(body)
	return &inv, nil
}

// DeleteInvitation issues DELETE <endpoint><pk>/.
func (c *Client) DeleteInvitation(ctx context.Context, pk string) error {
	req := auth.Apply(c.client.R().SetContext(ctx), c.authProvider)

	resp, err := req.Delete(c.Endpoint() + url.PathEscape(pk) + "/")
	_, err = c.check("DELETE", resp, err)
	return err
}

// check converts transport failures and non-2xx replies into *StatusError.
// Status and body are read from resp only when it exists.
func (c *Client) check(method string, resp *resty.Response, err error) ([]byte, error) {
	status := 0
	var body []byte
	if resp != nil && resp.RawResponse != nil {
		status = resp.StatusCode()
		body = resp.Body()
	}
	metrics.ObserveProviderRequest(method, status)

	if err != nil {
		log.Errorw("authentik request failed", "method", method, "url", c.Endpoint(), "error", err)
		return nil, &StatusError{Status: status, Body: string(body), Err: err}
	}
	if status < 200 || status >= 300 {
		log.Warnw("authentik returned non-2xx", "method", method, "status", status, "response", string(body))
		return nil, &StatusError{Status: status, Body: string(body)}
	}
	return body, nil
}
