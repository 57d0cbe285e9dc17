package common

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ValidateNoControlChars rejects text containing C0 control characters or DEL.
// Such characters would terminate or corrupt an interpreter command line.
func ValidateNoControlChars(value string) error {
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("value contains control character %U", r)
		}
	}
	return nil
}

// ValidateKeep validates a retention count (non-negative decimal integer)
func ValidateKeep(keep string) error {
	if keep == "" {
		return fmt.Errorf("keep count cannot be empty")
	}

	for _, c := range keep {
		if c < '0' || c > '9' {
			return fmt.Errorf("keep count must be a non-negative integer: %s", keep)
		}
	}

	if _, err := strconv.Atoi(keep); err != nil {
		return fmt.Errorf("keep count out of range: %s", keep)
	}

	return nil
}

// ValidateCompressionLevel validates a compression level name (letters only, e.g. Fast)
func ValidateCompressionLevel(level string) error {
	if level == "" {
		return fmt.Errorf("compression level cannot be empty")
	}

	if len(level) > 32 {
		return fmt.Errorf("compression level too long (max 32 characters): %s", level)
	}

	for _, c := range level {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return fmt.Errorf("compression level must contain letters only: %s", level)
		}
	}

	return nil
}

// ValidateModuleName validates a PowerShell module name
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}

	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '_' || c == '-') {
			return fmt.Errorf("module name contains invalid character: %s", name)
		}
	}

	return nil
}

// ValidateBool validates a boolean flag value as accepted by strconv.ParseBool
func ValidateBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value: %s", value)
	}
	return nil
}

// ValidateNotEmpty validates that a string is not empty
func ValidateNotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ValidateInterpreter validates an interpreter executable name or path.
// Whitespace-only names and control characters are rejected; existence is
// checked separately by the doctor command.
func ValidateInterpreter(path string) error {
	if err := ValidateNotEmpty(path); err != nil {
		return fmt.Errorf("interpreter cannot be empty")
	}
	if strings.IndexFunc(path, unicode.IsControl) >= 0 {
		return fmt.Errorf("interpreter contains control characters: %q", path)
	}
	return nil
}

// ValidateLogLevel validates a slog level name
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level (debug, info, warn, error): %s", level)
	}
}
