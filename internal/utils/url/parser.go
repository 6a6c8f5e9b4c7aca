package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// BuildSearchURL joins base and path and sets param to the URL-encoded query.
// Any query string already present on base is preserved.
func BuildSearchURL(base, path, param, query string) (string, error) {
	if err := ValidateURL(base); err != nil {
		return "", err
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if path != "" {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	values := u.Query()
	values.Set(param, query)
	u.RawQuery = values.Encode()

	return u.String(), nil
}
