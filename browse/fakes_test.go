package browse

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"atlbrowse/confluence"
	"atlbrowse/internal/prompt"
	"atlbrowse/jira"
	"atlbrowse/storage"
)

var errBoom = errors.New("request GET /x failed with status 500: boom")

type fakeJira struct {
	email        string
	myselfErr    error
	projects     []jira.Project
	projectsErr  error
	filters      []jira.Filter
	filter       jira.Filter
	filterErr    error
	search       func(jql string, startAt, maxResults int) (jira.IssuePage, error)
	searchCalls  []int
	getFilterIDs []int
}

func (f *fakeJira) Myself(ctx context.Context) (jira.User, error) {
	if f.myselfErr != nil {
		return jira.User{}, f.myselfErr
	}
	return jira.User{DisplayName: "Dev", Email: f.email}, nil
}

func (f *fakeJira) ListProjects(ctx context.Context) ([]jira.Project, error) {
	return f.projects, f.projectsErr
}

func (f *fakeJira) SearchIssues(ctx context.Context, jql string, startAt, maxResults int) (jira.IssuePage, error) {
	f.searchCalls = append(f.searchCalls, startAt)
	if f.search == nil {
		return jira.IssuePage{}, nil
	}
	return f.search(jql, startAt, maxResults)
}

func (f *fakeJira) ListFilters(ctx context.Context) ([]jira.Filter, error) {
	return f.filters, nil
}

func (f *fakeJira) GetFilter(ctx context.Context, id int) (jira.Filter, error) {
	f.getFilterIDs = append(f.getFilterIDs, id)
	return f.filter, f.filterErr
}

type fakeWiki struct {
	pingErr       error
	spaces        []confluence.Space
	listContent   func(spaceKey string, start, limit int, expand []string) (confluence.ContentPage, error)
	contentCalls  int
	children      map[string][]confluence.Content
	childrenErr   error
	childrenCalls []string
	content       confluence.Content
	raw           []byte
	contentErr    error
}

func (f *fakeWiki) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeWiki) ListSpaces(ctx context.Context) ([]confluence.Space, error) {
	return f.spaces, nil
}

func (f *fakeWiki) ListContent(ctx context.Context, spaceKey string, start, limit int, expand ...string) (confluence.ContentPage, error) {
	f.contentCalls++
	if f.listContent == nil {
		return confluence.ContentPage{}, nil
	}
	return f.listContent(spaceKey, start, limit, expand)
}

func (f *fakeWiki) GetContent(ctx context.Context, id string) (confluence.Content, []byte, error) {
	return f.content, f.raw, f.contentErr
}

func (f *fakeWiki) ListChildren(ctx context.Context, id string) ([]confluence.Content, error) {
	f.childrenCalls = append(f.childrenCalls, id)
	if f.childrenErr != nil {
		return nil, f.childrenErr
	}
	return f.children[id], nil
}

type fakeHistory struct {
	inserted []storage.Download
}

func (f *fakeHistory) InsertDownload(d storage.Download) (int64, error) {
	f.inserted = append(f.inserted, d)
	return int64(len(f.inserted)), nil
}

func (f *fakeHistory) ListDownloads(limit int) ([]storage.Download, error) {
	return f.inserted, nil
}

func newTestSession(input string, j *fakeJira, w *fakeWiki) (*Session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	s := &Session{
		Credentials: Credentials{Domain: "acme.atlassian.net", Email: "dev@acme.io", Token: "t"},
		BaseURL:     "https://acme.atlassian.net",
		Jira:        j,
		Wiki:        w,
		Console:     prompt.New(strings.NewReader(input), out),
		Out:         out,
		Settings: Settings{
			IssueBatchSize: 50,
			PageBatchSize:  2,
			ScanTimeout:    time.Second,
		},
		Interrupted: func() bool { return false },
	}
	s.applyDefaults()
	return s, out
}

func pageWithAncestors(id string, depth int) confluence.Content {
	ancestors := make([]confluence.Ancestor, 0, depth)
	for i := 0; i < depth; i++ {
		ancestors = append(ancestors, confluence.Ancestor{ID: "a" + string(rune('0'+i))})
	}
	return confluence.Content{ID: id, Title: "Page " + id, Ancestors: ancestors}
}
