// Package metrics exports async validation activity to Prometheus.
//
// An Observer plugs into the async controller and records, per field,
// validator attempts, retries, settled outcomes and wall time, plus a gauge
// of validations currently in flight:
//
//	obs, err := metrics.New(prometheus.DefaultRegisterer, "signup")
//	if err != nil {
//		return err
//	}
//	ctrl := asyncvalidate.New(asyncvalidate.WithObserver(obs))
//
// Outcome labels are success, failed, timeout and cancelled. Creating a second
// Observer against the same registry reuses the collectors registered by the
// first one, so tests and hot reloads do not fail on duplicate registration.
package metrics
