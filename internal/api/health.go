package api

import (
	"net/http"
)

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n")) //nolint:errcheck
}

// readyzHandler reports 503 once the backend stopped accepting work.
func readyzHandler(readiness ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if readiness != nil && !readiness.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not ready\n")) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready\n")) //nolint:errcheck
	}
}
