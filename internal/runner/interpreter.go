package runner

import "runtime"

// Interpreter is the executable a command line is handed to.
// The final argv is Args followed by the line as one argument.
type Interpreter struct {
	Path string
	Args []string
}

// DefaultInterpreterPath is powershell.exe on Windows and pwsh elsewhere
func DefaultInterpreterPath() string {
	if runtime.GOOS == "windows" {
		return "powershell.exe"
	}
	return "pwsh"
}

// PowerShell runs lines with the execution policy bypassed and no profile.
// An empty path selects DefaultInterpreterPath.
func PowerShell(path string) Interpreter {
	if path == "" {
		path = DefaultInterpreterPath()
	}
	return Interpreter{
		Path: path,
		Args: []string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-Command"},
	}
}

func (i Interpreter) argv(line string) []string {
	args := make([]string, 0, len(i.Args)+1)
	args = append(args, i.Args...)
	return append(args, line)
}
