package config

import (
	"fmt"
	"sort"

	"github.com/zoro11031/pshvtools-shell/internal/common"
)

// Configuration key constants to prevent typos and enable autocomplete
const (
	// Interpreter configuration
	KeyInterpreter = "INTERPRETER" // Empty means powershell.exe on Windows, pwsh elsewhere
	KeyModuleName  = "MODULE_NAME"

	// Operation defaults offered in prompts and used by flags left unset
	KeyDefaultPattern     = "DEFAULT_PATTERN"
	KeyDefaultDestination = "DEFAULT_DESTINATION"
	KeyDefaultKeep        = "DEFAULT_KEEP"
	KeyDefaultCompression = "DEFAULT_COMPRESSION"
	KeyDefaultDryRun      = "DEFAULT_DRY_RUN"

	// Runtime behaviour
	KeyConcurrentRuns = "CONCURRENT_RUNS"
	KeyLogLevel       = "LOG_LEVEL"
)

// Default values for configuration keys
var Defaults = map[string]string{
	KeyInterpreter:        "",
	KeyModuleName:         "pshvtools",
	KeyDefaultPattern:     "*",
	KeyDefaultDestination: "",
	KeyDefaultKeep:        "7",
	KeyDefaultCompression: "Fast",
	KeyDefaultDryRun:      "false",
	KeyConcurrentRuns:     "false",
	KeyLogLevel:           "warn",
}

// validators check values written through the settings command
var validators = map[string]func(string) error{
	KeyInterpreter: func(v string) error {
		if v == "" {
			return nil
		}
		return common.ValidateInterpreter(v)
	},
	KeyModuleName:         common.ValidateModuleName,
	KeyDefaultPattern:     common.ValidateNoControlChars,
	KeyDefaultDestination: common.ValidateNoControlChars,
	KeyDefaultKeep: func(v string) error {
		if v == "" {
			return nil
		}
		return common.ValidateKeep(v)
	},
	KeyDefaultCompression: func(v string) error {
		if v == "" {
			return nil
		}
		return common.ValidateCompressionLevel(v)
	},
	KeyDefaultDryRun:  common.ValidateBool,
	KeyConcurrentRuns: common.ValidateBool,
	KeyLogLevel:       common.ValidateLogLevel,
}

// Keys returns all known configuration keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(Defaults))
	for k := range Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateSetting checks that key is known and value is acceptable for it
func ValidateSetting(key, value string) error {
	validate, ok := validators[key]
	if !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	if err := validate(value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
