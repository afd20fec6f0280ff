package config

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/chr1sbest/jobrunlog/internal/logger"
)

// ValidationError holds details about a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, "  - "+e.Error())
	}
	return fmt.Sprintf("validation failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}

// HasErrors returns true if there are any validation errors.
func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// Validate checks a config for errors and returns all of them.
func Validate(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.JobsDataPath) == "" {
		errs = append(errs, ValidationError{
			Field:   "jobs_data_path",
			Message: "jobs data path is required",
		})
	}

	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("%q is not one of debug, info, warn, error", cfg.LogLevel),
		})
	}

	if strings.IndexFunc(cfg.InstanceID, unicode.IsSpace) >= 0 {
		errs = append(errs, ValidationError{
			Field:   "instance_id",
			Message: "must not contain whitespace",
		})
	}

	if cfg.CommandTimeout != "" {
		d, err := time.ParseDuration(cfg.CommandTimeout)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "command_timeout",
				Message: fmt.Sprintf("invalid duration %q", cfg.CommandTimeout),
			})
		} else if d < 0 {
			errs = append(errs, ValidationError{
				Field:   "command_timeout",
				Message: "must not be negative",
			})
		}
	}

	return errs
}

// ValidateConfig returns Validate's errors as a single error, or nil.
func ValidateConfig(cfg *Config) error {
	errs := Validate(cfg)
	if errs.HasErrors() {
		return errs
	}
	return nil
}
