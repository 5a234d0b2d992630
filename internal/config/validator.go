package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.resolve_request_code")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// packageNameRegex matches dotted application package names such as
// "com.twitter.android".
var packageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)+$`)

// maxRequestCode is the largest request code the host accepts; only the
// lower 16 bits are delivered back with an activity result.
const maxRequestCode = 0xFFFF

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Session and Leaderboard request codes
	errors = append(errors, c.validateRequestCodes()...)

	// Validate Leaderboard config
	errors = append(errors, c.validateLeaderboard()...)

	// Validate Share config
	errors = append(errors, c.validateShare()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateRequestCodes checks that both reserved request codes are in range
// and distinct, so activity results can be routed unambiguously.
func (c *Config) validateRequestCodes() []ValidationError {
	var errors []ValidationError

	codes := []struct {
		field string
		value int
	}{
		{"session.resolve_request_code", c.Session.ResolveRequestCode},
		{"leaderboard.request_code", c.Leaderboard.RequestCode},
	}
	for _, code := range codes {
		if code.value <= 0 || code.value > maxRequestCode {
			errors = append(errors, ValidationError{
				Field:   code.field,
				Value:   code.value,
				Message: fmt.Sprintf("must be between 1 and %d", maxRequestCode),
			})
		}
	}

	if c.Session.ResolveRequestCode == c.Leaderboard.RequestCode {
		errors = append(errors, ValidationError{
			Field:   "leaderboard.request_code",
			Value:   c.Leaderboard.RequestCode,
			Message: "must differ from session.resolve_request_code",
		})
	}

	return errors
}

// validateLeaderboard validates the LeaderboardConfig
func (c *Config) validateLeaderboard() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Leaderboard.ID) == "" {
		errors = append(errors, ValidationError{
			Field:   "leaderboard.id",
			Value:   c.Leaderboard.ID,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateShare validates the ShareConfig
func (c *Config) validateShare() []ValidationError {
	var errors []ValidationError

	if !packageNameRegex.MatchString(c.Share.TargetPackage) {
		errors = append(errors, ValidationError{
			Field:   "share.target_package",
			Value:   c.Share.TargetPackage,
			Message: "must be a dotted package name (e.g., com.twitter.android)",
		})
	}

	u, err := url.Parse(c.Share.WebURL)
	switch {
	case err != nil:
		errors = append(errors, ValidationError{
			Field:   "share.web_url",
			Value:   c.Share.WebURL,
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	case u.Scheme != "http" && u.Scheme != "https":
		errors = append(errors, ValidationError{
			Field:   "share.web_url",
			Value:   c.Share.WebURL,
			Message: "must be an http or https URL",
		})
	case u.Host == "":
		errors = append(errors, ValidationError{
			Field:   "share.web_url",
			Value:   c.Share.WebURL,
			Message: "must include a host",
		})
	case u.RawQuery != "":
		errors = append(errors, ValidationError{
			Field:   "share.web_url",
			Value:   c.Share.WebURL,
			Message: "must not carry a query string",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
