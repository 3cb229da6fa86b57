package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	apiPrefix        = "/wiki/rest/api"
	defaultPageLimit = 50
	maxErrorBody     = 4096
)

// Client defines the Confluence API operations used by the browser.
type Client interface {
	Ping(ctx context.Context) error
	ListSpaces(ctx context.Context) ([]Space, error)
	ListContent(ctx context.Context, spaceKey string, start, limit int, expand ...string) (ContentPage, error)
	GetContent(ctx context.Context, id string) (Content, []byte, error)
	ListChildren(ctx context.Context, id string) ([]Content, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	UserAgent  string
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	email      string
	apiToken   string
	userAgent  string
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		email:      strings.TrimSpace(cfg.Email),
		apiToken:   strings.TrimSpace(cfg.APIToken),
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

type Space struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Links struct {
	WebUI string `json:"webui"`
	Next  string `json:"next"`
}

type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type Body struct {
	Storage *Storage `json:"storage"`
}

type Content struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Title     string     `json:"title"`
	Ancestors []Ancestor `json:"ancestors"`
	Space     *Space     `json:"space"`
	Body      *Body      `json:"body"`
	Links     Links      `json:"_links"`
}

// StorageValue returns the storage-format body, or "" when the body was not
// expanded or is empty.
func (c Content) StorageValue() string {
	if c.Body == nil || c.Body.Storage == nil {
		return ""
	}
	return c.Body.Storage.Value
}

func (c Content) SpaceKey() string {
	if c.Space == nil {
		return ""
	}
	return c.Space.Key
}

type ContentPage struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
	Links   Links     `json:"_links"`
}

// HasNext reports whether the service announced a further batch.
func (p ContentPage) HasNext() bool {
	return strings.TrimSpace(p.Links.Next) != ""
}

type spacePage struct {
	Results []Space `json:"results"`
	Start   int     `json:"start"`
	Limit   int     `json:"limit"`
	Size    int     `json:"size"`
	Links   Links   `json:"_links"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// WebURL resolves a relative webui link against the wiki root of baseURL.
func WebURL(baseURL, webui string) string {
	if strings.TrimSpace(webui) == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/wiki" + webui
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, apiPrefix+"/space?limit=1", nil, nil)
}

func (c *HTTPClient) ListSpaces(ctx context.Context) ([]Space, error) {
	out := make([]Space, 0)
	start := 0
	for {
		query := url.Values{}
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(defaultPageLimit))

		var page spacePage
		if err := c.doJSON(ctx, apiPrefix+"/space?"+query.Encode(), &page, nil); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if strings.TrimSpace(page.Links.Next) == "" || len(page.Results) == 0 {
			return out, nil
		}
		start += len(page.Results)
	}
}

func (c *HTTPClient) ListContent(ctx context.Context, spaceKey string, start, limit int, expand ...string) (ContentPage, error) {
	spaceKey = strings.TrimSpace(spaceKey)
	if spaceKey == "" {
		return ContentPage{}, errors.New("space key is required")
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	query := url.Values{}
	query.Set("spaceKey", spaceKey)
	query.Set("type", "page")
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(limit))
	if len(expand) > 0 {
		query.Set("expand", strings.Join(expand, ","))
	}

	var page ContentPage
	if err := c.doJSON(ctx, apiPrefix+"/content?"+query.Encode(), &page, nil); err != nil {
		return ContentPage{}, err
	}
	return page, nil
}

func (c *HTTPClient) GetContent(ctx context.Context, id string) (Content, []byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Content{}, nil, errors.New("content id is required")
	}

	query := url.Values{}
	query.Set("expand", "body.storage,space")

	var raw []byte
	var out Content
	path := fmt.Sprintf("%s/content/%s?%s", apiPrefix, url.PathEscape(id), query.Encode())
	if err := c.doJSON(ctx, path, &out, &raw); err != nil {
		return Content{}, raw, err
	}
	return out, raw, nil
}

func (c *HTTPClient) ListChildren(ctx context.Context, id string) ([]Content, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("content id is required")
	}

	out := make([]Content, 0)
	start := 0
	for {
		query := url.Values{}
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(defaultPageLimit))

		var page ContentPage
		path := fmt.Sprintf("%s/content/%s/child/page?%s", apiPrefix, url.PathEscape(id), query.Encode())
		if err := c.doJSON(ctx, path, &page, nil); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if !page.HasNext() || len(page.Results) == 0 {
			return out, nil
		}
		start += len(page.Results)
	}
}

// doJSON issues a GET and decodes the response into out. When raw is non-nil
// it receives the undecoded body, also on decode failures.
func (c *HTTPClient) doJSON(ctx context.Context, endpointPath string, out any, raw *[]byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointPath, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if c.email != "" || c.apiToken != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if raw != nil {
			*raw = responseBody
		}
		return &StatusError{
			Method:     http.MethodGet,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBody)),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response GET %s: %w", endpointPath, err)
	}
	if raw != nil {
		*raw = payload
	}
	if out == nil || len(strings.TrimSpace(string(payload))) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}
