package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zoro11031/pshvtools-shell/internal/command"
)

// collector records events delivered to a sink
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) sink(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *collector) lines(s Stream) []string {
	var out []string
	for _, ev := range c.snapshot() {
		if !ev.IsTerminal() && ev.Stream == s {
			out = append(out, ev.Text)
		}
	}
	return out
}

func shell(t *testing.T) Interpreter {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("runner tests drive a POSIX shell")
	}
	return Interpreter{Path: "sh", Args: []string{"-c"}}
}

func waitStatus(t *testing.T, inv *Invocation) TerminalStatus {
	t.Helper()
	select {
	case <-inv.Done():
		return inv.Wait()
	case <-time.After(10 * time.Second):
		t.Fatal("invocation did not finish")
		return TerminalStatus{}
	}
}

// assertSingleTerminal checks the last event is the only terminal one
func assertSingleTerminal(t *testing.T, events []Event) TerminalStatus {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events delivered")
	}
	for i, ev := range events[:len(events)-1] {
		if ev.IsTerminal() {
			t.Fatalf("event %d is terminal but not last", i)
		}
	}
	last := events[len(events)-1]
	if !last.IsTerminal() {
		t.Fatal("last event is not terminal")
	}
	return *last.Status
}

func TestRunLaunchFailed(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing absolute path", "/nonexistent/dir/interp-xyz"},
		{"missing on PATH", "this-interpreter-does-not-exist-xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &collector{}
			r := New(Interpreter{Path: tt.path, Args: []string{"-Command"}})
			inv := r.Run(context.Background(), "Get-Date", c.sink)

			status := waitStatus(t, inv)
			if status.Kind != LaunchFailed {
				t.Errorf("status = %v, want LaunchFailed", status)
			}
			if status.Reason == "" {
				t.Error("LaunchFailed without reason")
			}

			events := c.snapshot()
			if len(events) != 1 {
				t.Fatalf("got %d events, want exactly 1 terminal event", len(events))
			}
			if got := assertSingleTerminal(t, events); got != status {
				t.Errorf("sink status = %v, Wait() = %v", got, status)
			}
		})
	}
}

func TestRunStreamsStdoutInOrder(t *testing.T) {
	const n = 200
	c := &collector{}
	r := New(shell(t))

	script := fmt.Sprintf(`i=1; while [ $i -le %d ]; do echo "line $i"; i=$((i+1)); done`, n)
	status := waitStatus(t, r.Run(context.Background(), command.Line(script), c.sink))

	if !status.Success() {
		t.Fatalf("status = %v, want completed (exit code 0)", status)
	}

	events := c.snapshot()
	if len(events) != n+1 {
		t.Fatalf("got %d events, want %d lines + terminal", len(events), n)
	}
	for i, ev := range events[:n] {
		want := fmt.Sprintf("line %d", i+1)
		if ev.Stream != Stdout || ev.Text != want {
			t.Fatalf("event %d = %s %q, want stdout %q", i, ev.Stream, ev.Text, want)
		}
	}
	if got := assertSingleTerminal(t, events); got.Kind != Completed || got.ExitCode != 0 {
		t.Errorf("terminal = %v, want Completed(0)", got)
	}
}

func TestRunStderrNonZeroExit(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	status := waitStatus(t, r.Run(context.Background(), "echo oops >&2; exit 3", c.sink))

	if status.Kind != Completed || status.ExitCode != 3 {
		t.Errorf("status = %v, want Completed(3)", status)
	}
	if status.Success() {
		t.Error("Success() = true for exit code 3")
	}
	if got := c.lines(Stderr); len(got) != 1 || got[0] != "oops" {
		t.Errorf("stderr lines = %v, want [oops]", got)
	}
	assertSingleTerminal(t, c.snapshot())
}

func TestRunPerStreamOrdering(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	script := "echo a; echo x >&2; echo b; echo y >&2; echo c"
	status := waitStatus(t, r.Run(context.Background(), command.Line(script), c.sink))
	if !status.Success() {
		t.Fatalf("status = %v", status)
	}

	if got := strings.Join(c.lines(Stdout), ","); got != "a,b,c" {
		t.Errorf("stdout = %s, want a,b,c", got)
	}
	if got := strings.Join(c.lines(Stderr), ","); got != "x,y" {
		t.Errorf("stderr = %s, want x,y", got)
	}
}

func TestRunStripsCarriageReturns(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	waitStatus(t, r.Run(context.Background(), `printf 'first\r\nsecond\r\n'`, c.sink))

	if got := strings.Join(c.lines(Stdout), "|"); got != "first|second" {
		t.Errorf("stdout = %q, want first|second", got)
	}
}

func TestRunPassesLineAsSingleArgument(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	waitStatus(t, r.Run(context.Background(), `echo "quoted  value"; echo '$HOME'`, c.sink))

	got := c.lines(Stdout)
	if len(got) != 2 || got[0] != "quoted  value" || got[1] != "$HOME" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunDeliversLinesBeforeExit(t *testing.T) {
	interp := shell(t)
	first := make(chan struct{})
	var once sync.Once

	r := New(interp)
	inv := r.Run(context.Background(), "echo ready; exec sleep 30", func(ev Event) {
		if !ev.IsTerminal() && ev.Text == "ready" {
			once.Do(func() { close(first) })
		}
	})

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first line not delivered while the process was running")
	}

	select {
	case <-inv.Done():
		t.Fatal("invocation finished before cancellation")
	default:
	}

	inv.Cancel()
	if status := waitStatus(t, inv); status.Kind != Cancelled {
		t.Errorf("status = %v, want Cancelled", status)
	}
}

func TestRunCancelViaContext(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	started := time.Now()
	status := waitStatus(t, r.Run(ctx, "sleep 30 & sleep 30 & wait", c.sink))

	if status.Kind != Cancelled {
		t.Errorf("status = %v, want Cancelled", status)
	}
	if time.Since(started) > 10*time.Second {
		t.Error("cancellation did not terminate the process tree promptly")
	}
	assertSingleTerminal(t, c.snapshot())
}

func TestRunCancelledBeforeLaunch(t *testing.T) {
	c := &collector{}
	r := New(shell(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := waitStatus(t, r.Run(ctx, "echo never", c.sink))
	if status.Kind != Cancelled {
		t.Errorf("status = %v, want Cancelled", status)
	}
	if lines := c.lines(Stdout); len(lines) != 0 {
		t.Errorf("got output %v from a run cancelled before launch", lines)
	}
}

func TestRunTreeKillerFailureFallsBack(t *testing.T) {
	r := New(shell(t), WithTreeKiller(func(int) error {
		return errors.New("no process table")
	}))

	inv := r.Run(context.Background(), "exec sleep 30", nil)
	time.Sleep(100 * time.Millisecond)
	inv.Cancel()

	if status := waitStatus(t, inv); status.Kind != Cancelled {
		t.Errorf("status = %v, want Cancelled", status)
	}
}

func TestRunLineTooLong(t *testing.T) {
	c := &collector{}
	r := New(shell(t), WithMaxLineSize(16))

	script := "head -c 200 /dev/zero | tr '\\0' a; echo; echo after"
	status := waitStatus(t, r.Run(context.Background(), command.Line(script), c.sink))

	if status.Kind != RunnerFailed {
		t.Errorf("status = %v, want RunnerFailed", status)
	}
	if !strings.Contains(status.Reason, "stdout") {
		t.Errorf("reason = %q, want stream named", status.Reason)
	}
	assertSingleTerminal(t, c.snapshot())
}

// panicFirst panics on the first posted function only
type panicFirst struct {
	mu    sync.Mutex
	fired bool
}

func (d *panicFirst) Post(fn func()) {
	d.mu.Lock()
	first := !d.fired
	d.fired = true
	d.mu.Unlock()
	if first {
		panic("sink exploded")
	}
	fn()
}

func TestRunRecoversPanics(t *testing.T) {
	c := &collector{}
	r := New(shell(t), WithDispatcher(&panicFirst{}))

	status := waitStatus(t, r.Run(context.Background(), "echo boom", c.sink))

	if status.Kind != RunnerFailed {
		t.Errorf("status = %v, want RunnerFailed", status)
	}
	if !strings.Contains(status.Reason, "panic") {
		t.Errorf("reason = %q, want panic mentioned", status.Reason)
	}
	assertSingleTerminal(t, c.snapshot())
}

func TestRunThroughLoop(t *testing.T) {
	c := &collector{}
	loop := NewLoop()
	r := New(shell(t), WithDispatcher(loop))

	inv := r.Run(context.Background(), "echo one; echo two >&2; echo three; exit 1", c.sink)
	loop.RunUntil(inv.Done())

	// Everything was delivered on this goroutine before RunUntil returned.
	status := assertSingleTerminal(t, c.snapshot())
	if status.Kind != Completed || status.ExitCode != 1 {
		t.Errorf("terminal = %v, want Completed(1)", status)
	}
	if got := strings.Join(c.lines(Stdout), ","); got != "one,three" {
		t.Errorf("stdout = %s", got)
	}
	if got := c.lines(Stderr); len(got) != 1 {
		t.Errorf("stderr = %v", got)
	}
}

func TestRunOnSeparateLoopsDoNotShareEvents(t *testing.T) {
	r := New(shell(t))

	run := func(name string) error {
		c := &collector{}
		loop := NewLoop()
		sink := func(ev Event) {
			time.Sleep(20 * time.Microsecond)
			c.sink(ev)
		}

		line := command.Line(fmt.Sprintf("i=0; while [ $i -lt 200 ]; do echo %s-$i; i=$((i+1)); done", name))
		inv := r.RunOn(context.Background(), loop, line, sink)
		loop.RunUntil(inv.Done())

		events := c.snapshot()
		if len(events) != 201 || !events[200].IsTerminal() {
			return fmt.Errorf("%s: RunUntil returned with %d events delivered, want 200 lines then terminal", name, len(events))
		}
		for _, text := range c.lines(Stdout) {
			if !strings.HasPrefix(text, name+"-") {
				return fmt.Errorf("%s: received %q from another run", name, text)
			}
		}
		return nil
	}

	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, name := range []string{"a", "b"} {
			i, name := i, name
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = run(name)
			}()
		}
		wg.Wait()
		if err := errors.Join(errs...); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunInvocationIDsAreUnique(t *testing.T) {
	r := New(shell(t))
	a := r.Run(context.Background(), "true", nil)
	b := r.Run(context.Background(), "true", nil)
	waitStatus(t, a)
	waitStatus(t, b)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("invocation IDs %q and %q, want distinct non-empty", a.ID, b.ID)
	}
}

func TestPowerShellInterpreter(t *testing.T) {
	ps := PowerShell("pwsh")
	got := strings.Join(ps.argv("hvhealth"), " ")
	want := "-NoProfile -ExecutionPolicy Bypass -Command hvhealth"
	if got != want {
		t.Errorf("argv = %s, want %s", got, want)
	}

	if PowerShell("").Path != DefaultInterpreterPath() {
		t.Error("PowerShell(\"\") does not use the default interpreter")
	}
}

func TestTerminalStatusString(t *testing.T) {
	tests := []struct {
		status TerminalStatus
		want   string
	}{
		{TerminalStatus{Kind: Completed}, "completed (exit code 0)"},
		{TerminalStatus{Kind: Completed, ExitCode: 2}, "completed (exit code 2)"},
		{TerminalStatus{Kind: LaunchFailed, ExitCode: -1, Reason: "not found"}, "launch-failed: not found"},
		{TerminalStatus{Kind: RunnerFailed, ExitCode: -1, Reason: "broken pipe"}, "runner-failed: broken pipe"},
		{TerminalStatus{Kind: Cancelled, ExitCode: -1}, "cancelled"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
