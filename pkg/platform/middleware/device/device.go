// Package device derives a human readable device label from the User-Agent
// and stores it in the request context for audit records.
package device

import (
	"net/http"
	"strings"

	"carehub/pkg/requestcontext"

	"github.com/mssola/useragent"
)

// UnknownDevice is the label for requests without a usable User-Agent.
const UnknownDevice = "Unknown Device"

// Label renders "Browser on OS", e.g. "Chrome on Intel Mac OS X 10_15_7".
func Label(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return UnknownDevice
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		return strings.TrimSpace("Bot " + name)
	}

	browser, _ := ua.Browser()
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	browser = strings.TrimSpace(browser)
	os = strings.TrimSpace(os)
	switch {
	case browser == "" && os == "":
		return UnknownDevice
	case browser == "":
		browser = "Unknown Browser"
	case os == "":
		os = "Unknown OS"
	}
	return browser + " on " + os
}

// Middleware labels the request's device. Run it after metadata.ClientMetadata.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), Label(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
