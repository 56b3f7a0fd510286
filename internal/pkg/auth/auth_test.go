package auth

import (
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
)

func TestBearerAuth(t *testing.T) {
	a := NewBearerAuth("secret")

	key, value := a.GetAuthHeader()
	assert.Equal(t, "Authorization", key)
	assert.Equal(t, "Bearer secret", value)
	assert.Equal(t, AuthTypeBearer, a.GetAuthType())
	assert.NoError(t, a.Validate())

	assert.Error(t, NewBearerAuth("").Validate())
}

func TestApply(t *testing.T) {
	req := resty.New().R()
	Apply(req, NewBearerAuth("t0k"))
	assert.Equal(t, "Bearer t0k", req.Header.Get("Authorization"))

	req = resty.New().R()
	Apply(req, nil)
	assert.Empty(t, req.Header.Get("Authorization"))
}
