package chat

import (
	"errors"
	"net/url"
	"strings"
)

// MatrixConf is the [matrix] configuration section.
type MatrixConf struct {
	Enable      bool   `mapstructure:"enable"`
	Homeserver  string `mapstructure:"homeserver"`
	AccessToken string `mapstructure:"access_token"`
	// UserID is resolved through whoami when empty.
	UserID string `mapstructure:"user_id"`
	// SyncTimeout is the long-poll timeout in seconds.
	SyncTimeout int `mapstructure:"sync_timeout"`
}

func (c *MatrixConf) SetDefaults() {
	c.Homeserver = strings.TrimRight(c.Homeserver, "/")
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = 30
	}
}

func (c *MatrixConf) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.Homeserver == "" {
		return errors.New("matrix.homeserver is required")
	}
	if _, err := url.ParseRequestURI(c.Homeserver); err != nil {
		return errors.New("matrix.homeserver must be an absolute url")
	}
	if c.AccessToken == "" {
		return errors.New("matrix.access_token is required")
	}
	return nil
}
