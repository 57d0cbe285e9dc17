package cli

import (
	"fmt"
	"strconv"

	"github.com/zoro11031/pshvtools-shell/internal/command"
	"github.com/zoro11031/pshvtools-shell/internal/common"
	"github.com/zoro11031/pshvtools-shell/internal/config"
	"github.com/zoro11031/pshvtools-shell/internal/ui"
)

// paramPrompt describes how a request parameter is prompted and defaulted
type paramPrompt struct {
	Label     string
	ConfigKey string
	Validate  func(string) error
}

var paramPrompts = map[string]paramPrompt{
	command.ParamPattern: {
		Label:     "VM name pattern",
		ConfigKey: config.KeyDefaultPattern,
		Validate:  common.ValidateNoControlChars,
	},
	command.ParamDestination: {
		Label:     "Destination path (blank for module default)",
		ConfigKey: config.KeyDefaultDestination,
		Validate:  common.ValidateNoControlChars,
	},
	command.ParamKeep: {
		Label:     "Number of backups to keep (blank for module default)",
		ConfigKey: config.KeyDefaultKeep,
		Validate:  optional(common.ValidateKeep),
	},
	command.ParamCompression: {
		Label:     "Compression level (blank for module default)",
		ConfigKey: config.KeyDefaultCompression,
		Validate:  optional(common.ValidateCompressionLevel),
	},
	command.ParamDryRun: {
		Label:     "Dry run only (-WhatIf)?",
		ConfigKey: config.KeyDefaultDryRun,
		Validate:  common.ValidateBool,
	},
}

func optional(validate func(string) error) func(string) error {
	return func(v string) error {
		if v == "" {
			return nil
		}
		return validate(v)
	}
}

// defaultFor returns the settings default for a parameter of op.
// Health and Restore start without a pattern so they cover every VM
// the module knows about unless the user narrows them.
func (s *ShellContext) defaultFor(op command.Operation, param string) string {
	if param == command.ParamPattern && (op == command.Health || op == command.Restore) {
		return ""
	}
	prompt := paramPrompts[param]
	return s.Config.GetOrDefault(prompt.ConfigKey, "")
}

// CollectRequest assembles a request for op. Values in overrides are used
// as given; every other parameter is prompted for with the settings default
// (or taken from settings directly in non-interactive mode).
func (s *ShellContext) CollectRequest(op command.Operation, overrides map[string]string) (command.Request, error) {
	for name := range overrides {
		if !op.Accepts(name) {
			return command.Request{}, fmt.Errorf("%s does not take --%s", op, name)
		}
	}

	params := make(map[string]string, len(op.Params()))
	for _, name := range op.Params() {
		if v, ok := overrides[name]; ok {
			params[name] = v
			continue
		}

		prompt := paramPrompts[name]
		def := s.defaultFor(op, name)

		if name == command.ParamDryRun {
			defBool, err := strconv.ParseBool(def)
			if err != nil {
				return command.Request{}, fmt.Errorf("invalid %s setting: %w", prompt.ConfigKey, err)
			}
			answer, err := s.UI.PromptYesNo(prompt.Label, defBool)
			if err != nil {
				return command.Request{}, err
			}
			params[name] = strconv.FormatBool(answer)
			continue
		}

		value, err := s.UI.PromptInputWithValidation(prompt.Label, def, ui.TextValidator(prompt.Validate))
		if err != nil {
			return command.Request{}, err
		}
		params[name] = value
	}

	return command.NewRequest(op, params), nil
}

// ConfirmRequest asks before a destructive run. Restores that are not dry
// runs need confirmation in interactive mode; everything else passes.
func (s *ShellContext) ConfirmRequest(req command.Request) (bool, error) {
	if req.Operation() != command.Restore || s.UI.IsNonInteractive() {
		return true, nil
	}
	if v, _ := req.Param(command.ParamDryRun); v == "true" {
		return true, nil
	}

	s.UI.Warning("Restore replaces virtual machines with their backed-up state")
	return s.UI.PromptYesNo("Proceed with restore?", false)
}
