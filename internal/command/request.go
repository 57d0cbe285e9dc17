// Package command builds PowerShell command lines for the pshvtools
// operations. A Request names an Operation and carries its parameters as
// text; a Builder turns it into a single quoted Line, rejecting any value
// that cannot be embedded safely.
package command

import (
	"fmt"
	"sort"
	"strings"
)

// Operation identifies one of the shell's buttons
type Operation int

const (
	Backup Operation = iota
	Compact
	Health
	Config
	Restore
)

// Parameter names accepted in a Request
const (
	ParamPattern     = "pattern"
	ParamDestination = "destination"
	ParamKeep        = "keep"
	ParamCompression = "compression"
	ParamDryRun      = "dryRun"
)

var operationNames = map[Operation]string{
	Backup:  "backup",
	Compact: "compact",
	Health:  "health",
	Config:  "config",
	Restore: "restore",
}

// Operations returns all operations in menu order
func Operations() []Operation {
	return []Operation{Backup, Compact, Health, Config, Restore}
}

// String returns the lower-case operation name used on the command line
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// Title returns the capitalized operation name used as a button label
func (o Operation) Title() string {
	name := o.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseOperation resolves an operation by name (case-insensitive)
func ParseOperation(name string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for op, n := range operationNames {
		if n == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation: %s", name)
}

// Params lists the parameter names the operation accepts, in flag order
func (o Operation) Params() []string {
	switch o {
	case Backup:
		return []string{ParamPattern, ParamDestination, ParamKeep, ParamCompression, ParamDryRun}
	case Compact:
		return []string{ParamPattern, ParamDryRun}
	case Restore:
		return []string{ParamPattern, ParamDestination, ParamDryRun}
	case Health:
		return []string{ParamPattern}
	default:
		return nil
	}
}

// Accepts reports whether the operation takes the named parameter
func (o Operation) Accepts(param string) bool {
	for _, p := range o.Params() {
		if p == param {
			return true
		}
	}
	return false
}

// Request is an immutable operation plus its text parameters.
// The zero value is a parameterless Backup request.
type Request struct {
	op     Operation
	params map[string]string
}

// NewRequest creates a Request. The params map is copied.
func NewRequest(op Operation, params map[string]string) Request {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return Request{op: op, params: copied}
}

// Operation returns the requested operation
func (r Request) Operation() Operation {
	return r.op
}

// Param returns a parameter value and whether it was supplied
func (r Request) Param(name string) (string, bool) {
	v, ok := r.params[name]
	return v, ok
}

// ParamNames returns supplied parameter names in sorted order
func (r Request) ParamNames() []string {
	names := make([]string, 0, len(r.params))
	for k := range r.params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
