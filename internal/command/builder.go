package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zoro11031/pshvtools-shell/internal/common"
)

// DefaultModule is the PowerShell module imported before every operation
const DefaultModule = "pshvtools"

// ErrInvalidParameter is matched by every ParameterError
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError reports a value that cannot be embedded in a command line
type ParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%q: %s", e.Name, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidParameter) true for any ParameterError
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Line is an assembled command text ready to hand to the interpreter
type Line string

func (l Line) String() string {
	return string(l)
}

var subcommands = map[Operation]string{
	Backup:  "hvbak",
	Compact: "hvcompact",
	Health:  "hvhealth",
	Config:  "Show-PSHVToolsConfig",
	Restore: "hvrecover",
}

// Builder assembles command lines. The zero value imports DefaultModule.
type Builder struct {
	Module string
}

// Build builds the command line for a request using DefaultModule
func Build(req Request) (Line, error) {
	return Builder{}.Build(req)
}

// Build assembles the command line for req.
// Text values are double-quoted with PowerShell escapes applied; keep and
// compression are validated and emitted bare.
func (b Builder) Build(req Request) (Line, error) {
	module, err := b.module()
	if err != nil {
		return "", err
	}

	op := req.Operation()
	sub, ok := subcommands[op]
	if !ok {
		return "", &ParameterError{Name: "operation", Value: op.String(), Reason: "unknown operation"}
	}

	for _, name := range req.ParamNames() {
		if !op.Accepts(name) {
			value, _ := req.Param(name)
			return "", &ParameterError{Name: name, Value: value, Reason: fmt.Sprintf("not accepted by %s", op)}
		}
	}

	var sb strings.Builder
	sb.WriteString("Import-Module ")
	sb.WriteString(module)
	sb.WriteString("; ")
	sb.WriteString(sub)

	if v, ok := nonEmpty(req, ParamPattern); ok {
		q, err := quote(ParamPattern, v)
		if err != nil {
			return "", err
		}
		sb.WriteString(" -NamePattern " + q)
	}

	if v, ok := nonEmpty(req, ParamDestination); ok {
		q, err := quote(ParamDestination, v)
		if err != nil {
			return "", err
		}
		sb.WriteString(" -DestinationPath " + q)
	}

	if v, ok := nonEmpty(req, ParamKeep); ok {
		if err := common.ValidateKeep(v); err != nil {
			return "", &ParameterError{Name: ParamKeep, Value: v, Reason: err.Error()}
		}
		sb.WriteString(" -Keep " + v)
	}

	if v, ok := nonEmpty(req, ParamCompression); ok {
		if err := common.ValidateCompressionLevel(v); err != nil {
			return "", &ParameterError{Name: ParamCompression, Value: v, Reason: err.Error()}
		}
		sb.WriteString(" -CompressionLevel " + v)
	}

	if op == Backup {
		sb.WriteString(" -Verbose")
	}

	dryRun := false
	if v, ok := nonEmpty(req, ParamDryRun); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return "", &ParameterError{Name: ParamDryRun, Value: v, Reason: "not a boolean"}
		}
		dryRun = parsed
	}
	if dryRun {
		sb.WriteString(" -WhatIf")
	}

	return Line(sb.String()), nil
}

// ModuleProbe returns a line that lists the configured module if installed
func (b Builder) ModuleProbe() (Line, error) {
	module, err := b.module()
	if err != nil {
		return "", err
	}
	return Line(fmt.Sprintf("Get-Module -ListAvailable -Name %q", module)), nil
}

func (b Builder) module() (string, error) {
	if b.Module == "" {
		return DefaultModule, nil
	}
	if err := common.ValidateModuleName(b.Module); err != nil {
		return "", &ParameterError{Name: "module", Value: b.Module, Reason: err.Error()}
	}
	return b.Module, nil
}

func nonEmpty(req Request, name string) (string, bool) {
	v, ok := req.Param(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// quote wraps value in PowerShell double quotes. Backtick, dollar and all
// characters PowerShell treats as a double quote are backtick-escaped so the
// value can neither close the string nor expand a subexpression.
func quote(name, value string) (string, error) {
	if !utf8.ValidString(value) {
		return "", &ParameterError{Name: name, Value: value, Reason: "not valid UTF-8"}
	}
	if err := common.ValidateNoControlChars(value); err != nil {
		return "", &ParameterError{Name: name, Value: value, Reason: err.Error()}
	}

	var sb strings.Builder
	sb.Grow(len(value) + 2)
	sb.WriteByte('"')
	for _, r := range value {
		switch r {
		case '`', '$', '"', '“', '”', '„':
			sb.WriteByte('`')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String(), nil
}
