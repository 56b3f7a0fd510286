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

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/akinvite/internal/chat"
	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/spf13/viper"
)

// DefaultConfigFile is used when --conf is not given.
const DefaultConfigFile = "conf.d/config.toml"

// EnvPrefix namespaces environment overrides, e.g. AKINVITE_INVITE_ADMIN_TOKEN.
const EnvPrefix = "AKINVITE"

// AppConfig holds all configuration settings
type AppConfig struct {
	Invite  InviteConf            `mapstructure:"invite"`
	Matrix  chat.MatrixConf       `mapstructure:"matrix"`
	Http    http.Http             `mapstructure:"http"`
	Log     log.Conf              `mapstructure:"log"`
	Metrics metrics.MetricsConfig `mapstructure:"metrics"`
}

// InviteConf is the [invite] section.
type InviteConf struct {
	CommandAliases  []string `mapstructure:"command_aliases"`
	CommandPrefix   string   `mapstructure:"command_prefix"`
	AdminToken      string   `mapstructure:"admin_token"`
	AkURL           string   `mapstructure:"ak_url"`
	FlowID          string   `mapstructure:"flow_id"`
	AllowedUsers    []string `mapstructure:"allowed_users"`
	DisallowedUsers []string `mapstructure:"disallowed_users"`
	Expiration      int      `mapstructure:"expiration"` // days
	Message         string   `mapstructure:"message"`
}

var (
	cfg     AppConfig
	loadErr error
	once    sync.Once
)

// NewConf loads confFile once per process and watches it for changes.
func NewConf(confFile string) (AppConfig, error) {
	once.Do(func() {
		cfg, loadErr = load(confFile, true)
	})
	return cfg, loadErr
}

// Load reads and validates confFile without watching it.
func Load(confFile string) (AppConfig, error) {
	return load(confFile, false)
}

func load(confFile string, watch bool) (AppConfig, error) {
	if confFile == "" {
		confFile = DefaultConfigFile
	}

	config := viper.New()
	config.SetConfigFile(confFile)
	config.SetConfigType("toml")
	config.SetEnvPrefix(EnvPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	setDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var out AppConfig
	if err := config.Unmarshal(&out); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	out.normalize()
	if err := out.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration %s: %w", confFile, err)
	}

	if watch {
		config.OnConfigChange(func(e fsnotify.Event) {
			log.Warnw("configuration file changed, restart to apply", "file", e.Name, "op", e.Op.String())
		})
		config.WatchConfig()
	}

	log.Infow("config file loaded",
		"path", confFile,
		"ak_url", out.Invite.AkURL,
		"chat", out.Matrix.Enable,
		"http", out.Http.Enable,
	)
	return out, nil
}

// setDefaults registers every key so env overrides apply even when the file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("invite.command_aliases", []string{})
	v.SetDefault("invite.command_prefix", "!")
	v.SetDefault("invite.admin_token", "")
	v.SetDefault("invite.ak_url", "")
	v.SetDefault("invite.flow_id", "")
	v.SetDefault("invite.allowed_users", []string{})
	v.SetDefault("invite.disallowed_users", []string{})
	v.SetDefault("invite.expiration", 7)
	v.SetDefault("invite.message", "")

	v.SetDefault("matrix.enable", false)
	v.SetDefault("matrix.homeserver", "")
	v.SetDefault("matrix.access_token", "")
	v.SetDefault("matrix.user_id", "")
	v.SetDefault("matrix.sync_timeout", 30)

	v.SetDefault("http.enable", true)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.accessLog", true)

	logConf := log.SetDefaults()
	v.SetDefault("log.output", logConf.Output)
	v.SetDefault("log.path", logConf.Path)
	v.SetDefault("log.filename", logConf.Filename)
	v.SetDefault("log.level", logConf.Level)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9100)
	v.SetDefault("metrics.pprof", false)
}

func (c *AppConfig) normalize() {
	c.Invite.AkURL = strings.TrimRight(strings.TrimSpace(c.Invite.AkURL), "/")
	if c.Invite.CommandPrefix == "" {
		c.Invite.CommandPrefix = "!"
	}
	c.Matrix.SetDefaults()
	c.Http.SetDefaults()
}

// Validate reports the first missing or malformed setting.
func (c *AppConfig) Validate() error {
	if c.Invite.AdminToken == "" {
		return errors.New("invite.admin_token is required")
	}
	if c.Invite.AkURL == "" {
		return errors.New("invite.ak_url is required")
	}
	if u, err := url.ParseRequestURI(c.Invite.AkURL); err != nil || u.Host == "" {
		return fmt.Errorf("invite.ak_url %q is not an absolute url", c.Invite.AkURL)
	}
	if c.Invite.FlowID == "" {
		return errors.New("invite.flow_id is required")
	}
	if c.Invite.Expiration < 0 {
		return fmt.Errorf("invite.expiration must not be negative, got %d", c.Invite.Expiration)
	}
	if !c.Matrix.Enable && !c.Http.Enable {
		return errors.New("at least one of matrix.enable or http.enable must be set")
	}
	if c.Matrix.Enable && len(c.Invite.CommandAliases) == 0 {
		return errors.New("invite.command_aliases needs at least one alias when matrix is enabled")
	}
	if err := c.Matrix.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
