/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes Prometheus counters for an NTS-capable server's
// codec-level outcomes: how many packets it decrypted successfully, how
// many it rejected and why, and how many kiss responses it issued, broken
// down by kiss code.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/timewire/ntp-nts/protocol/ntp"
)

// Exporter owns a private Prometheus registry for a single server process's
// NTS codec counters.
type Exporter struct {
	registry *prometheus.Registry

	decryptSuccess  prometheus.Counter
	decryptFailure  prometheus.Counter
	malformedFields prometheus.Counter
	malformedNonce  prometheus.Counter
	incorrectLength prometheus.Counter
	invalidVersion  prometheus.Counter
	kissResponses   *prometheus.CounterVec
}

// NewExporter builds an Exporter with its counters registered against a
// fresh registry.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		decryptSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_nts_decrypt_success_total",
			Help: "Extension-field containers successfully opened.",
		}),
		decryptFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_nts_decrypt_failure_total",
			Help: "Extension-field containers that failed AEAD verification.",
		}),
		malformedFields: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_nts_malformed_extension_fields_total",
			Help: "Packets rejected for malformed NTS extension fields.",
		}),
		malformedNonce: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_nts_malformed_nonce_total",
			Help: "Packets rejected for a nonce of the wrong length.",
		}),
		incorrectLength: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_incorrect_length_total",
			Help: "Packets rejected for a header, field, or container length mismatch.",
		}),
		invalidVersion: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ntp_invalid_version_total",
			Help: "Packets rejected for an unsupported protocol version.",
		}),
		kissResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntp_kiss_responses_total",
			Help: "Kiss-o'-Death responses issued, by reference id code.",
		}, []string{"code"}),
	}

	for _, c := range []prometheus.Collector{
		e.decryptSuccess,
		e.decryptFailure,
		e.malformedFields,
		e.malformedNonce,
		e.incorrectLength,
		e.invalidVersion,
		e.kissResponses,
	} {
		if err := e.registry.Register(c); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if !prometheusErrorsAs(err, are) {
				panic(err)
			}
		}
	}

	return e
}

// ObserveParseError increments the counter matching err's classification, one
// per sentinel/type in the codec's closed error taxonomy (errors.go), or does
// nothing for a nil or unrecognized error.
func (e *Exporter) ObserveParseError(err error) {
	var verr *ntp.InvalidVersionError
	switch {
	case err == nil:
		return
	case errors.Is(err, ntp.ErrDecrypt):
		e.decryptFailure.Inc()
	case errors.Is(err, ntp.ErrMalformedExtensionFields):
		e.malformedFields.Inc()
	case errors.Is(err, ntp.ErrMalformedNonce):
		e.malformedNonce.Inc()
	case errors.Is(err, ntp.ErrIncorrectLength):
		e.incorrectLength.Inc()
	case errors.As(err, &verr):
		e.invalidVersion.Inc()
	}
}

// ObserveDecryptSuccess records one successfully opened container.
func (e *Exporter) ObserveDecryptSuccess() {
	e.decryptSuccess.Inc()
}

// ObserveKissResponse records one issued kiss response of the given
// reference-id code, e.g. "RATE" or "DENY".
func (e *Exporter) ObserveKissResponse(code string) {
	e.kissResponses.WithLabelValues(code).Inc()
}

// ServeHTTP registers the /metrics endpoint on mux in OpenMetrics form.
func (e *Exporter) ServeHTTP(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}

// Listen is a convenience wrapper for standing up a dedicated metrics
// listener, mirroring the single-purpose exporter processes this package
// is modeled on.
func (e *Exporter) Listen(addr string) error {
	mux := http.NewServeMux()
	e.ServeHTTP(mux)
	return http.ListenAndServe(addr, mux) //nolint:gosec
}

func prometheusErrorsAs(err error, target *prometheus.AlreadyRegisteredError) bool {
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return false
	}
	*target = are
	return true
}
