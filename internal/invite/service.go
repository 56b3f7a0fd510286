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

package invite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-arcade/akinvite/internal/pkg/authentik"
	"github.com/go-arcade/akinvite/pkg/log"
)

// Provider is the identity-provider API the service drives.
type Provider interface {
	CreateInvitation(ctx context.Context, in authentik.CreateRequest) (*authentik.Invitation, error)
	ListInvitations(ctx context.Context) (*authentik.Page, error)
	GetInvitation(ctx context.Context, pk string) (*authentik.Invitation, error)
	DeleteInvitation(ctx context.Context, pk string) error
}

// Config is the read-only input the service works from.
type Config struct {
	AkURL          string
	FlowID         string
	ExpirationDays int
	Message        string
	Policy         Policy
}

// Result is one freshly created invitation and its delivery text.
type Result struct {
	Name      string
	Token     string
	FlowSlug  string
	ExpiresAt time.Time
	Expires   string
	URL       string
	Message   string
}

// Status summarizes an existing invitation.
type Status struct {
	Name      string `json:"name"`
	Token     string `json:"token"`
	Expires   string `json:"expires"`
	SingleUse bool   `json:"single_use"`
	FlowSlug  string `json:"flow_slug"`
}

// Service runs the invitation pipeline. It keeps no state between calls.
type Service struct {
	cfg      Config
	provider Provider
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(cfg Config, provider Provider, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize checks caller against the policy.
func (s *Service) Authorize(caller string) error {
	if !s.cfg.Policy.Authorize(caller) {
		log.Infow("invitation request denied", "caller", caller)
		return &AuthorizationError{Caller: caller}
	}
	return nil
}

// Generate creates a single-use invitation for rawLabel on behalf of caller.
func (s *Service) Generate(ctx context.Context, caller, rawLabel string) (*Result, error) {
	if strings.TrimSpace(rawLabel) == "" {
		return nil, &ValidationError{Msg: "please tell me who this invite is for"}
	}
	if err := s.Authorize(caller); err != nil {
		return nil, err
	}

	name := Sanitize(rawLabel)
	if name == "" {
		return nil, &ValidationError{Msg: "the invitee name must contain at least one letter or digit"}
	}

	expiresAt := ExpiresAt(s.now(), s.cfg.ExpirationDays)
	expires := FormatExpiry(expiresAt)
	log.Debugw("creating invitation", "caller", caller, "name", name, "expires", expires)

	inv, err := s.provider.CreateInvitation(ctx, authentik.NewCreateRequest(name, caller, expires, s.cfg.FlowID))
	if err != nil {
		return nil, s.providerError("create invitation", err)
	}

	if inv.Pk == "" || inv.FlowObj == nil || inv.FlowObj.Slug == "" {
		err := &MalformedResponseError{Body: inv.Raw, Err: errors.New("response is missing pk or flow_obj.slug")}
		log.Errorw("bad invitation response", "error", err, "response", inv.Raw)
		return nil, err
	}

	token, slug := inv.Pk, inv.FlowObj.Slug
	log.Infow("invitation created", "caller", caller, "name", name, "flow", slug, "expires", expires)

	return &Result{
		Name:      name,
		Token:     token,
		FlowSlug:  slug,
		ExpiresAt: expiresAt,
		Expires:   expires,
		URL:       RegistrationURL(s.cfg.AkURL, slug, token),
		Message:   FormatMessage(s.cfg, token, slug),
	}, nil
}

// List returns the names of existing invitations in provider order.
func (s *Service) List(ctx context.Context, caller string) ([]string, error) {
	if err := s.Authorize(caller); err != nil {
		return nil, err
	}

	page, err := s.provider.ListInvitations(ctx)
	if err != nil {
		return nil, s.providerError("list invitations", err)
	}
	if page.Results == nil {
		err := &MalformedResponseError{Body: page.Raw, Err: errors.New("response is missing results")}
		log.Errorw("bad invitation list response", "error", err, "response", page.Raw)
		return nil, err
	}

	names := make([]string, 0, len(*page.Results))
	for _, inv := range *page.Results {
		names = append(names, inv.Name)
	}
	return names, nil
}

// Status looks up the invitation identified by token.
func (s *Service) Status(ctx context.Context, caller, token string) (*Status, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &ValidationError{Msg: "you must supply a token to check"}
	}
	if err := s.Authorize(caller); err != nil {
		return nil, err
	}

	inv, err := s.provider.GetInvitation(ctx, token)
	if err != nil {
		return nil, s.providerError("get invitation", err)
	}
	if inv.Pk == "" {
		return nil, &MalformedResponseError{Body: inv.Raw, Err: errors.New("response is missing pk")}
	}

	st := &Status{
		Name:      inv.Name,
		Token:     inv.Pk,
		Expires:   inv.Expires,
		SingleUse: inv.SingleUse,
	}
	if inv.FlowObj != nil {
		st.FlowSlug = inv.FlowObj.Slug
	}
	return st, nil
}

// Revoke deletes the invitation identified by token.
func (s *Service) Revoke(ctx context.Context, caller, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &ValidationError{Msg: "you must supply a token to revoke"}
	}
	if err := s.Authorize(caller); err != nil {
		return err
	}

	if err := s.provider.DeleteInvitation(ctx, token); err != nil {
		return s.providerError("revoke invitation", err)
	}
	log.Infow("invitation revoked", "caller", caller, "token", token)
	return nil
}

func (s *Service) providerError(op string, err error) error {
	var (
		statusErr *authentik.StatusError
		decodeErr *authentik.DecodeError
	)
	switch {
	case errors.As(err, &statusErr):
		return &UpstreamError{Op: op, Status: statusErr.Status, Body: statusErr.Body, Err: statusErr.Err}
	case errors.As(err, &decodeErr):
		log.Errorw("undecodable identity provider response", "op", op, "error", decodeErr.Err, "response", decodeErr.Body)
		return &MalformedResponseError{Body: decodeErr.Body, Err: decodeErr.Err}
	default:
		return &UpstreamError{Op: op, Err: err}
	}
}
