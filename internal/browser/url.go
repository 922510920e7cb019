package browser

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateProfileURL accepts http(s) URLs on linkedin.com or a subdomain
// whose path is /in/<slug>. It returns the URL normalized to https without
// query or fragment.
func ValidateProfileURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidProfileURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidProfileURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidProfileURL, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return "", fmt.Errorf("%w: host %q", ErrInvalidProfileURL, host)
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) < 2 || segs[0] != "in" || segs[1] == "" {
		return "", fmt.Errorf("%w: path %q is not /in/<profile>", ErrInvalidProfileURL, u.Path)
	}

	out := url.URL{Scheme: "https", Host: host, Path: "/" + strings.Join(segs, "/") + "/"}
	return out.String(), nil
}

// ValidateCredentials rejects blank fields.
func ValidateCredentials(c Credentials) error {
	var missing []string
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}
