// Copyright (C) 2019 Nicola Murino
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

//go:build nometrics

package metric

import (
	"github.com/go-chi/chi/v5"

	"github.com/campushire/campushire/internal/version"
)

// Login kinds
const (
	LoginKindCandidate = "candidate"
	LoginKindAdmin     = "admin"
)

func init() {
	version.AddFeature("-metrics")
}

// AddMetricsEndpoint publishes metrics to the specified endpoint
func AddMetricsEndpoint(_ string, _ chi.Router) {}

// AddLoginAttempt increments the metrics for login attempts
func AddLoginAttempt(_ string) {}

// AddLoginResult increments the metrics for login results
func AddLoginResult(_ string, _ error) {}

// IdentityCheckCompleted updates metrics after an identity lookup
func IdentityCheckCompleted(_ error) {}

// PlatformRequestCompleted updates metrics after a platform API request
func PlatformRequestCompleted(_ error) {}

// UpdatePlatformAvailability sets the metric for the platform API availability
func UpdatePlatformAvailability(_ error) {}

// RouteResolved increments the metrics for routing decisions
func RouteResolved(_ bool) {}

// JobApplicationCompleted updates metrics after a job application
func JobApplicationCompleted(_ error) {}

// TestSubmissionCompleted updates metrics after a test submission
func TestSubmissionCompleted(_ error) {}

// HTTPRequestServed increments the metrics for HTTP requests
func HTTPRequestServed(_ int) {}
