package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"atlbrowse/confluence"
	"atlbrowse/internal/prompt"
	"atlbrowse/jira"
	"atlbrowse/storage"

	"github.com/gookit/color"
)

const (
	defaultIssueBatchSize = 50
	defaultPageBatchSize  = 50
	defaultScanTimeout    = 30 * time.Second
)

// ErrInvalidCredentials ends a session before the menu is shown.
var ErrInvalidCredentials = errors.New("invalid email or API token")

// Credentials is the bundle collected once per session.
type Credentials struct {
	Domain string
	Email  string
	Token  string
}

func (c Credentials) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.Domain) == "" {
		missing = append(missing, "domain")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "API token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BaseURL turns the domain into a site URL. A bare host gets https://.
func (c Credentials) BaseURL() (string, error) {
	raw := strings.TrimSpace(c.Domain)
	if raw == "" {
		return "", errors.New("domain is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse domain: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid domain %q", c.Domain)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

type Settings struct {
	IssueBatchSize int
	PageBatchSize  int
	ScanTimeout    time.Duration
	OutputDir      string
}

// History is the download log. Sessions run without one when it is nil.
type History interface {
	InsertDownload(d storage.Download) (int64, error)
	ListDownloads(limit int) ([]storage.Download, error)
}

// Session is passed to every menu handler.
type Session struct {
	Credentials Credentials
	BaseURL     string
	Jira        jira.Client
	Wiki        confluence.Client
	History     History
	Console     *prompt.Console
	Out         io.Writer
	Settings    Settings

	// Interrupted is polled before each further batch of the top-level page
	// scan. It defaults to Console.Pending.
	Interrupted func() bool
}

type Options struct {
	Credentials Credentials
	Settings    Settings
	Console     *prompt.Console
	History     History
	Transport   http.RoundTripper
	UserAgent   string
}

// NewSession builds the Jira and Confluence clients for one credential bundle.
func NewSession(opts Options) (*Session, error) {
	if opts.Console == nil {
		return nil, errors.New("console is required")
	}
	if err := opts.Credentials.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := opts.Credentials.BaseURL()
	if err != nil {
		return nil, err
	}

	jiraClient, err := jira.NewClient(jira.ClientConfig{
		BaseURL:   baseURL,
		Email:     opts.Credentials.Email,
		APIToken:  opts.Credentials.Token,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, err
	}

	wikiClient, err := confluence.NewClient(confluence.ClientConfig{
		BaseURL:    baseURL,
		Email:      opts.Credentials.Email,
		APIToken:   opts.Credentials.Token,
		UserAgent:  opts.UserAgent,
		HTTPClient: &http.Client{Transport: opts.Transport},
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Credentials: opts.Credentials,
		BaseURL:     baseURL,
		Jira:        jiraClient,
		Wiki:        wikiClient,
		History:     opts.History,
		Console:     opts.Console,
		Out:         opts.Console.Out(),
		Settings:    opts.Settings,
	}, nil
}

func printSignedIn(w io.Writer, user jira.User) {
	name := strings.TrimSpace(user.DisplayName)
	email := strings.TrimSpace(user.Email)
	switch {
	case name != "" && email != "":
		fmt.Fprintf(w, "Signed in as %s (%s).\n", name, email)
	case name != "":
		fmt.Fprintf(w, "Signed in as %s.\n", name)
	case email != "":
		fmt.Fprintf(w, "Signed in as %s.\n", email)
	}
}

// Run validates the credentials and then serves the menu until the operator
// exits, input ends, or ctx is cancelled.
func Run(ctx context.Context, s *Session) error {
	s.applyDefaults()

	user, err := s.Jira.Myself(ctx)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(s.Out, "\nGoodbye.")
			return nil
		}
		fmt.Fprintln(s.Out, color.Red.Sprint("Invalid email or API token."))
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	printSignedIn(s.Out, user)

	commands := Commands()
	for {
		printMenu(s.Out, commands)
		choice, err := s.Console.Ask(ctx, fmt.Sprintf("Enter option (0-%d): ", len(commands)-1))
		if err != nil {
			if isSessionEnd(ctx, err) {
				fmt.Fprintln(s.Out, "\nGoodbye.")
				return nil
			}
			return err
		}

		command, ok := lookupCommand(commands, choice)
		if !ok {
			fmt.Fprintln(s.Out, color.Red.Sprint("Invalid option."))
			continue
		}
		if command.Run == nil {
			fmt.Fprintln(s.Out, "Goodbye.")
			return nil
		}

		if err := command.Run(ctx, s); err != nil {
			if isSessionEnd(ctx, err) {
				fmt.Fprintln(s.Out, "\nGoodbye.")
				return nil
			}
			reportFailure(s.Out, err)
		}
	}
}

func (s *Session) applyDefaults() {
	if s.Out == nil {
		s.Out = s.Console.Out()
	}
	if s.Settings.IssueBatchSize <= 0 {
		s.Settings.IssueBatchSize = defaultIssueBatchSize
	}
	if s.Settings.PageBatchSize <= 0 {
		s.Settings.PageBatchSize = defaultPageBatchSize
	}
	if s.Settings.ScanTimeout <= 0 {
		s.Settings.ScanTimeout = defaultScanTimeout
	}
	if strings.TrimSpace(s.Settings.OutputDir) == "" {
		s.Settings.OutputDir = "."
	}
	if s.Interrupted == nil {
		s.Interrupted = s.Console.Pending
	}
}

func isSessionEnd(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled)
}

func reportFailure(out io.Writer, err error) {
	fmt.Fprintln(out, color.Red.Sprintf("Request failed: %v", err))
}
