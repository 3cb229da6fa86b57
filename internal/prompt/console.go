// Package prompt implements the line-oriented operator console.
//
// Input is owned by one background goroutine that reads a line (or a no-echo
// secret) each time one is requested, so callers can block with context
// cancellation or poll for pending input without blocking.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ErrAborted is returned by SelectIndex when the operator enters 0.
var ErrAborted = errors.New("selection aborted")

type line struct {
	text string
	err  error
}

// terminal is the tty access used for no-echo input.
type terminal struct {
	readPassword func(fd int) ([]byte, error)
	getState     func(fd int) (*term.State, error)
	restore      func(fd int, state *term.State) error
}

var stdTerminal = terminal{
	readPassword: term.ReadPassword,
	getState:     term.GetState,
	restore:      term.Restore,
}

type Console struct {
	in  io.Reader
	out io.Writer

	// fd is the descriptor used for no-echo secret input; -1 disables it.
	fd       int
	terminal terminal

	once     sync.Once
	requests chan bool // true asks for a secret
	lines    chan line

	// waiting is set while a request has been sent but its line not received.
	waiting bool
	stashed *line
}

// New returns a console reading from in and writing prompts to out.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, fd: -1, terminal: stdTerminal}
}

// NewStdio returns a console on the process stdin/stdout. Secrets are read
// without echo when stdin is a terminal.
func NewStdio() *Console {
	c := New(os.Stdin, os.Stdout)
	if isatty.IsTerminal(os.Stdin.Fd()) {
		c.fd = int(os.Stdin.Fd())
	}
	return c
}

func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) start() {
	c.once.Do(func() {
		c.requests = make(chan bool, 1)
		c.lines = make(chan line, 1)
		go c.serve()
	})
}

// serve answers one request at a time. A secret is read from the terminal
// only when no typed-ahead input is buffered.
func (c *Console) serve() {
	defer close(c.lines)
	reader := bufio.NewReader(c.in)
	var final error
	for secret := range c.requests {
		if final != nil {
			c.lines <- line{err: final}
			return
		}

		if secret && c.fd >= 0 && reader.Buffered() == 0 {
			value, err := c.terminal.readPassword(c.fd)
			if err != nil {
				c.lines <- line{err: fmt.Errorf("read secret: %w", err)}
				return
			}
			c.lines <- line{text: string(value)}
			continue
		}

		text, err := reader.ReadString('\n')
		if err != nil {
			if text == "" {
				c.lines <- line{err: err}
				return
			}
			final = err
		}
		c.lines <- line{text: strings.TrimRight(text, "\r\n")}
	}
}

func (c *Console) request(secret bool) {
	c.start()
	if !c.waiting {
		c.requests <- secret
		c.waiting = true
	}
}

func (c *Console) receive(l line, ok bool) (string, error) {
	c.waiting = false
	if !ok {
		c.stashed = &line{err: io.EOF}
		return "", io.EOF
	}
	if l.err != nil {
		c.stashed = &l
		return "", l.err
	}
	return l.text, nil
}

// Pending reports, without blocking, whether the operator has entered a line.
// The line is consumed.
func (c *Console) Pending() bool {
	if c.stashed != nil {
		return false
	}
	c.request(false)
	select {
	case l, ok := <-c.lines:
		_, err := c.receive(l, ok)
		return err == nil
	default:
		return false
	}
}

// ReadLine prints label and waits for the next input line.
func (c *Console) ReadLine(ctx context.Context, label string) (string, error) {
	if label != "" {
		fmt.Fprint(c.out, label)
	}
	if c.stashed != nil {
		return "", c.stashed.err
	}
	c.request(false)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		return c.receive(l, ok)
	}
}

// Ask is ReadLine with surrounding whitespace removed.
func (c *Console) Ask(ctx context.Context, label string) (string, error) {
	text, err := c.ReadLine(ctx, label)
	return strings.TrimSpace(text), err
}

// Required keeps asking until a non-empty value is entered.
func (c *Console) Required(ctx context.Context, label string) (string, error) {
	for {
		value, err := c.Ask(ctx, strings.TrimSpace(label)+": ")
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSpace(strings.ToLower(label)), err)
		}
		if value == "" {
			fmt.Fprintln(c.out, "Value must not be empty.")
			continue
		}
		return value, nil
	}
}

// Confirm asks a yes/no question; only "y" (any case) is a yes.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := c.Ask(ctx, question+" (y/n): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

// SelectIndex prints options with 1-based ordinals and returns the 0-based
// index chosen. Entering 0 returns ErrAborted.
func (c *Console) SelectIndex(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("no options available for %q", title)
	}

	for {
		fmt.Fprintln(c.out, title)
		for i, option := range options {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, option)
		}
		input, err := c.Ask(ctx, fmt.Sprintf("Choose [1-%d, 0 to cancel]: ", len(options)))
		if err != nil {
			return -1, fmt.Errorf("read selection input: %w", err)
		}
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 0 || choice > len(options) {
			fmt.Fprintln(c.out, "Invalid selection. Please enter a valid number.")
			continue
		}
		if choice == 0 {
			return -1, ErrAborted
		}
		return choice - 1, nil
	}
}

// Secret reads a value without echo when the console is attached to a
// terminal, and falls back to a plain line read otherwise. The terminal state
// is restored if ctx ends while the read is in progress.
func (c *Console) Secret(ctx context.Context, label string) (string, error) {
	fmt.Fprint(c.out, label)
	if c.stashed != nil {
		return "", c.stashed.err
	}

	noEcho := c.fd >= 0 && !c.waiting
	var saved *term.State
	if noEcho {
		state, err := c.terminal.getState(c.fd)
		if err != nil {
			return "", fmt.Errorf("read terminal state: %w", err)
		}
		saved = state
	}

	c.request(noEcho)
	select {
	case <-ctx.Done():
		if saved != nil {
			_ = c.terminal.restore(c.fd, saved)
			fmt.Fprintln(c.out)
		}
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if noEcho {
			fmt.Fprintln(c.out)
		}
		value, err := c.receive(l, ok)
		return strings.TrimSpace(value), err
	}
}
