package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// RoundTripper logs every outbound provider request and response body to a
// dedicated file, which is the audit trail for third-party API traffic.
type RoundTripper struct {
	logger *zap.Logger
	proxy  http.RoundTripper
}

func NewRoundTripper(logger *zap.Logger) *RoundTripper {
	return &RoundTripper{
		logger: logger,
		proxy:  http.DefaultTransport,
	}
}

// secretParams are query parameters that carry credentials and must never
// reach the log file.
var secretParams = []string{"appid"}

// redactURL replaces credential-bearing query parameter values so the logged
// URL stays useful for debugging without leaking the API key.
func redactURL(u *url.URL) string {
	q := u.Query()
	redacted := false
	for _, name := range secretParams {
		if q.Has(name) {
			q.Set(name, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return u.String()
	}
	clean := *u
	clean.RawQuery = q.Encode()
	return clean.String()
}

func (l *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	loggedURL := redactURL(req.URL)

	resp, err := l.proxy.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		l.logger.Error("provider request failed",
			zap.String("method", req.Method),
			zap.String("url", loggedURL),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		l.logger.Error("failed to read provider response body",
			zap.String("method", req.Method),
			zap.String("url", loggedURL),
			zap.Error(err),
		)
		return resp, err
	}
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	l.logger.Info("provider request completed",
		zap.String("method", req.Method),
		zap.String("url", loggedURL),
		zap.Int("status_code", resp.StatusCode),
		zap.ByteString("body", bodyBytes),
		zap.Duration("duration", duration),
	)

	return resp, nil
}
