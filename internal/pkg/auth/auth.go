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

package auth

import (
	"errors"

	"github.com/go-resty/resty/v2"
)

// AuthType represents the authentication type
type AuthType string

const (
	AuthTypeBearer AuthType = "bearer" // Bearer token authentication
)

// IAuthProvider defines the interface for outbound request credentials
type IAuthProvider interface {
	// GetAuthType gets the authentication type
	GetAuthType() AuthType
	// GetAuthHeader gets the authentication header key and value
	GetAuthHeader() (string, string)
	// Validate validates the authentication configuration
	Validate() error
}

// BearerAuth implements bearer token authentication
type BearerAuth struct {
	Token string
}

func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{Token: token}
}

func (a *BearerAuth) GetAuthType() AuthType {
	return AuthTypeBearer
}

func (a *BearerAuth) GetAuthHeader() (string, string) {
	return "Authorization", "Bearer " + a.Token
}

func (a *BearerAuth) Validate() error {
	if a.Token == "" {
		return errors.New("bearer token is required")
	}
	return nil
}

// Apply sets the provider's header on a request. A nil provider is a no-op.
func Apply(req *resty.Request, provider IAuthProvider) *resty.Request {
	if provider == nil {
		return req
	}
	key, value := provider.GetAuthHeader()
	if key != "" && value != "" {
		req.SetHeader(key, value)
	}
	return req
}
