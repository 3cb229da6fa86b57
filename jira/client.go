package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gojira "github.com/andygrunwald/go-jira"
)

// Client defines the Jira operations used by the browser.
type Client interface {
	Myself(ctx context.Context) (User, error)
	ListProjects(ctx context.Context) ([]Project, error)
	SearchIssues(ctx context.Context, jql string, startAt, maxResults int) (IssuePage, error)
	ListFilters(ctx context.Context) ([]Filter, error)
	GetFilter(ctx context.Context, id int) (Filter, error)
}

type ClientConfig struct {
	BaseURL  string
	Email    string
	APIToken string
	// Transport is the round tripper wrapped by basic auth; nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
}

type HTTPClient struct {
	api     *gojira.Client
	baseURL string
}

type User struct {
	DisplayName string
	Email       string
}

type Project struct {
	ID   string
	Key  string
	Name string
}

type Issue struct {
	ID      string
	Key     string
	Summary string
	Status  string
	Link    string
}

// IssuePage is one batch of a search together with the service-reported total.
type IssuePage struct {
	Issues     []Issue
	StartAt    int
	MaxResults int
	Total      int
}

// Filter is a saved search. JQL is only populated by GetFilter.
type Filter struct {
	ID   string
	Name string
	JQL  string
}

// StatusError carries the HTTP status of a failed Jira call.
type StatusError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewClient returns a Jira client authenticating with email and API token.
// To generate an API token, go to https://id.atlassian.com/manage-profile/security/api-tokens.
func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	tp := gojira.BasicAuthTransport{
		Username:  strings.TrimSpace(cfg.Email),
		Password:  strings.TrimSpace(cfg.APIToken),
		Transport: cfg.Transport,
	}
	api, err := gojira.NewClient(tp.Client(), baseURL+"/")
	if err != nil {
		return nil, fmt.Errorf("cannot create Jira client: %w", err)
	}
	return &HTTPClient{api: api, baseURL: baseURL}, nil
}

// BrowseURL returns the web link of an issue key.
func BrowseURL(baseURL, key string) string {
	return fmt.Sprintf("%s/browse/%s", strings.TrimRight(baseURL, "/"), key)
}

func (c *HTTPClient) Myself(ctx context.Context) (User, error) {
	user, resp, err := c.api.User.GetSelfWithContext(ctx)
	if err != nil {
		return User{}, wrapError("get current user", resp, err)
	}
	return User{
		DisplayName: user.DisplayName,
		Email:       user.EmailAddress,
	}, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context) ([]Project, error) {
	list, resp, err := c.api.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, wrapError("list projects", resp, err)
	}
	if list == nil {
		return []Project{}, nil
	}
	out := make([]Project, 0, len(*list))
	for _, project := range *list {
		out = append(out, Project{ID: project.ID, Key: project.Key, Name: project.Name})
	}
	return out, nil
}

func (c *HTTPClient) SearchIssues(ctx context.Context, jql string, startAt, maxResults int) (IssuePage, error) {
	if strings.TrimSpace(jql) == "" {
		return IssuePage{}, errors.New("jql is required")
	}
	options := &gojira.SearchOptions{
		StartAt:    startAt,
		MaxResults: maxResults,
		Fields:     []string{"summary", "status"},
	}
	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, options)
	if err != nil {
		return IssuePage{}, wrapError("search issues", resp, err)
	}

	page := IssuePage{
		Issues:     make([]Issue, 0, len(issues)),
		StartAt:    startAt,
		MaxResults: maxResults,
	}
	if resp != nil {
		page.Total = resp.Total
	}
	for _, issue := range issues {
		page.Issues = append(page.Issues, c.convertIssue(issue))
	}
	return page, nil
}

// ListFilters walks every page of the filter search.
func (c *HTTPClient) ListFilters(ctx context.Context) ([]Filter, error) {
	out := []Filter{}
	start := 0
	for {
		list, resp, err := c.api.Filter.SearchWithContext(ctx, &gojira.FilterSearchOptions{StartAt: int64(start)})
		if err != nil {
			return nil, wrapError("search filters", resp, err)
		}
		if list == nil {
			return out, nil
		}
		for _, item := range list.Values {
			out = append(out, Filter{ID: fmt.Sprint(item.ID), Name: item.Name})
		}
		if list.IsLast || len(list.Values) == 0 || (list.Total > 0 && len(out) >= list.Total) {
			return out, nil
		}
		start += len(list.Values)
	}
}

func (c *HTTPClient) GetFilter(ctx context.Context, id int) (Filter, error) {
	filter, resp, err := c.api.Filter.GetWithContext(ctx, id)
	if err != nil {
		return Filter{}, wrapError("get filter "+strconv.Itoa(id), resp, err)
	}
	return Filter{ID: filter.ID, Name: filter.Name, JQL: filter.Jql}, nil
}

func (c *HTTPClient) convertIssue(issue gojira.Issue) Issue {
	out := Issue{
		ID:   issue.ID,
		Key:  issue.Key,
		Link: BrowseURL(c.baseURL, issue.Key),
	}
	if issue.Fields != nil {
		out.Summary = issue.Fields.Summary
		if issue.Fields.Status != nil {
			out.Status = issue.Fields.Status.Name
		}
	}
	return out
}

func wrapError(op string, resp *gojira.Response, err error) error {
	if resp != nil && resp.Response != nil {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
