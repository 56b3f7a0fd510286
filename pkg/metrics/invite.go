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

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// InvitationsTotal counts invitation requests by entry point and outcome
	InvitationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akinvite_invitations_total",
			Help: "Total number of invitation requests",
		},
		[]string{"source", "outcome"},
	)

	// ProviderRequestsTotal counts outbound identity-provider requests
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "akinvite_provider_requests_total",
			Help: "Total number of requests sent to the identity provider",
		},
		[]string{"method", "status"},
	)
)

// SetupInviteMetrics registers the invitation collectors on s.
func SetupInviteMetrics(s *Server) error {
	for _, c := range []prometheus.Collector{InvitationsTotal, ProviderRequestsTotal} {
		if err := s.RegisterCollector(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveInvitation records one invitation request.
func ObserveInvitation(source, outcome string) {
	InvitationsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveProviderRequest records one provider call; status 0 means no response.
func ObserveProviderRequest(method string, status int) {
	ProviderRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
