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

package http

import (
	"fmt"
	"time"
)

// Http is the [http] configuration section.
type Http struct {
	Enable          bool      `mapstructure:"enable"`
	Host            string    `mapstructure:"host"`
	Port            int       `mapstructure:"port"`
	AccessLog       bool      `mapstructure:"accessLog"`
	BodyLimit       int       `mapstructure:"bodyLimit"`
	ReadTimeout     int       `mapstructure:"readTimeout"`
	WriteTimeout    int       `mapstructure:"writeTimeout"`
	IdleTimeout     int       `mapstructure:"idleTimeout"`
	ShutdownTimeout int       `mapstructure:"shutdownTimeout"`
	RateLimit       RateLimit `mapstructure:"rateLimit"`
}

// RateLimit configures the per-caller token bucket. RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// SetDefaults fills zero values.
func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "0.0.0.0"
	}
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.BodyLimit <= 0 {
		h.BodyLimit = 64 * 1024
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 60
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 60
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 120
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30
	}
	if h.RateLimit.RPS > 0 && h.RateLimit.Burst <= 0 {
		h.RateLimit.Burst = 1
	}
}

// Addr returns host:port.
func (h *Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// Timeout converts a seconds setting to a duration.
func Timeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
