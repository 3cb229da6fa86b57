package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/term"
)

func TestConsole_ReadLineTrimsLineEndings(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	console := New(strings.NewReader("first\r\nsecond\n"), &out)
	ctx := context.Background()

	got, err := console.ReadLine(ctx, "Name: ")
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected %q, got %q", "first", got)
	}
	got, err = console.ReadLine(ctx, "")
	if err != nil || got != "second" {
		t.Fatalf("unexpected second line %q (%v)", got, err)
	}
	if _, err := console.ReadLine(ctx, ""); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if !strings.Contains(out.String(), "Name: ") {
		t.Fatalf("expected label in output, got %q", out.String())
	}
}

func TestConsole_LastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	console := New(strings.NewReader("tail"), io.Discard)
	got, err := console.ReadLine(context.Background(), "")
	if err != nil || got != "tail" {
		t.Fatalf("unexpected line %q (%v)", got, err)
	}
}

func TestConsole_RequiredRepromptsOnEmptyValue(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	console := New(strings.NewReader("\n   \nacme.atlassian.net\n"), &out)

	got, err := console.Required(context.Background(), "Domain")
	if err != nil {
		t.Fatalf("required: %v", err)
	}
	if got != "acme.atlassian.net" {
		t.Fatalf("unexpected value %q", got)
	}
	if strings.Count(out.String(), "Value must not be empty.") != 2 {
		t.Fatalf("expected two empty-value notices, got %q", out.String())
	}
}

func TestConsole_ConfirmAcceptsOnlyY(t *testing.T) {
	t.Parallel()

	console := New(strings.NewReader("Y\nyes\nn\n"), io.Discard)
	ctx := context.Background()

	want := []bool{true, false, false}
	for i, expected := range want {
		got, err := console.Confirm(ctx, "Load more?")
		if err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
		if got != expected {
			t.Fatalf("confirm %d: expected %t, got %t", i, expected, got)
		}
	}
}

func TestConsole_SelectIndex(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	console := New(strings.NewReader("abc\n9\n2\n"), &out)

	idx, err := console.SelectIndex(context.Background(), "Select page:", []string{"Home", "Runbooks"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if strings.Count(out.String(), "Invalid selection.") != 2 {
		t.Fatalf("expected two invalid-selection notices, got %q", out.String())
	}
	if !strings.Contains(out.String(), "  1) Home") || !strings.Contains(out.String(), "  2) Runbooks") {
		t.Fatalf("expected numbered options, got %q", out.String())
	}
}

func TestConsole_SelectIndexZeroAborts(t *testing.T) {
	t.Parallel()

	console := New(strings.NewReader("0\n"), io.Discard)
	_, err := console.SelectIndex(context.Background(), "Select page:", []string{"Home"})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestConsole_ReadLineHonoursCancellation(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	defer writer.Close()

	console := New(reader, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := console.ReadLine(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConsole_PendingDetectsTypedLineWithoutBlocking(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	defer writer.Close()
	console := New(reader, io.Discard)

	if console.Pending() {
		t.Fatal("expected no pending input before anything was typed")
	}

	go func() {
		_, _ = writer.Write([]byte("\n"))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !console.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("pending input was never detected")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if console.Pending() {
		t.Fatal("pending line should have been consumed")
	}
}

func TestConsole_SecretFallsBackToLineWithoutTerminal(t *testing.T) {
	t.Parallel()

	console := New(strings.NewReader(" s3cr3t \n"), io.Discard)
	got, err := console.Secret(context.Background(), "Token: ")
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	if got != "s3cr3t" {
		t.Fatalf("unexpected secret %q", got)
	}
}

// fakeTerminal stands in for a tty on descriptor fd.
type fakeTerminal struct {
	mu       sync.Mutex
	password string
	block    chan struct{}
	state    *term.State
	reads    []int
	restored []*term.State
}

func (f *fakeTerminal) attach(c *Console, fd int) {
	c.fd = fd
	c.terminal = terminal{
		readPassword: func(fd int) ([]byte, error) {
			f.mu.Lock()
			f.reads = append(f.reads, fd)
			f.mu.Unlock()
			if f.block != nil {
				<-f.block
			}
			return []byte(f.password), nil
		},
		getState: func(fd int) (*term.State, error) {
			return f.state, nil
		},
		restore: func(fd int, state *term.State) error {
			f.mu.Lock()
			f.restored = append(f.restored, state)
			f.mu.Unlock()
			return nil
		},
	}
}

func (f *fakeTerminal) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads)
}

func TestConsole_SecretSkipsEchoAfterLinePrompts(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	console := New(strings.NewReader("acme.atlassian.net\n"), &out)
	tty := &fakeTerminal{password: " supersecret ", state: &term.State{}}
	tty.attach(console, 7)
	ctx := context.Background()

	domain, err := console.Required(ctx, "Enter domain")
	if err != nil || domain != "acme.atlassian.net" {
		t.Fatalf("unexpected domain %q (%v)", domain, err)
	}

	got, err := console.Secret(ctx, "Enter your API token: ")
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	if got != "supersecret" {
		t.Fatalf("unexpected secret %q", got)
	}
	if tty.readCount() != 1 || tty.reads[0] != 7 {
		t.Fatalf("expected one no-echo read on fd 7, got %v", tty.reads)
	}
	if !strings.HasSuffix(out.String(), "Enter your API token: \n") {
		t.Fatalf("expected newline after hidden input, got %q", out.String())
	}
}

func TestConsole_SecretUsesTypedAheadLine(t *testing.T) {
	t.Parallel()

	console := New(strings.NewReader("acme.atlassian.net\ntyped-token\n"), io.Discard)
	tty := &fakeTerminal{password: "unused", state: &term.State{}}
	tty.attach(console, 7)
	ctx := context.Background()

	if _, err := console.Required(ctx, "Enter domain"); err != nil {
		t.Fatalf("required: %v", err)
	}
	got, err := console.Secret(ctx, "Token: ")
	if err != nil || got != "typed-token" {
		t.Fatalf("unexpected secret %q (%v)", got, err)
	}
	if tty.readCount() != 0 {
		t.Fatalf("terminal must not be read while input is buffered, got %d reads", tty.readCount())
	}
}

func TestConsole_SecretRestoresTerminalWhenCancelled(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	defer writer.Close()

	console := New(reader, io.Discard)
	tty := &fakeTerminal{state: &term.State{}, block: make(chan struct{})}
	defer close(tty.block)
	tty.attach(console, 7)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for tty.readCount() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	if _, err := console.Secret(ctx, "Token: "); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	tty.mu.Lock()
	defer tty.mu.Unlock()
	if len(tty.restored) != 1 || tty.restored[0] != tty.state {
		t.Fatalf("expected the saved terminal state to be restored once, got %v", tty.restored)
	}
}
