package browse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"atlbrowse/jira"
	"atlbrowse/output"
)

func listServices(ctx context.Context, s *Session) error {
	fmt.Fprintln(s.Out, "Services accessible:")
	found := 0
	if _, err := s.Jira.ListProjects(ctx); err == nil {
		fmt.Fprintln(s.Out, "- Jira Software")
		found++
	}
	if err := s.Wiki.Ping(ctx); err == nil {
		fmt.Fprintln(s.Out, "- Confluence")
		found++
	}
	if found == 0 {
		fmt.Fprintln(s.Out, "- none")
	}
	return ctx.Err()
}

func listProjects(ctx context.Context, s *Session) error {
	projects, err := s.Jira.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Fprintln(s.Out, "No projects found.")
		return nil
	}
	fmt.Fprintln(s.Out, "Projects accessible:")
	for _, project := range projects {
		fmt.Fprintf(s.Out, "- %s (Key: %s)\n", project.Name, project.Key)
	}
	return nil
}

func listProjectIssues(ctx context.Context, s *Session) error {
	key, err := s.Console.Required(ctx, "Enter the project key")
	if err != nil {
		return err
	}
	return pageIssues(ctx, s, projectJQL(key), fmt.Sprintf("Issues in project %s:", key))
}

func listFilters(ctx context.Context, s *Session) error {
	filters, err := s.Jira.ListFilters(ctx)
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}
	if len(filters) == 0 {
		fmt.Fprintln(s.Out, "No filters found.")
		return nil
	}
	fmt.Fprintln(s.Out, "Filters:")
	for _, filter := range filters {
		fmt.Fprintf(s.Out, "- %s (ID: %s)\n", filter.Name, filter.ID)
	}
	return nil
}

func listFilterIssues(ctx context.Context, s *Session) error {
	raw, err := s.Console.Required(ctx, "Enter filter ID")
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		fmt.Fprintf(s.Out, "Filter ID must be a positive number, got %q.\n", raw)
		return nil
	}

	filter, err := s.Jira.GetFilter(ctx, id)
	if err != nil {
		return fmt.Errorf("get filter %d: %w", id, err)
	}
	if strings.TrimSpace(filter.JQL) == "" {
		fmt.Fprintf(s.Out, "No JQL found for filter ID %d.\n", id)
		return nil
	}
	return pageIssues(ctx, s, filter.JQL, fmt.Sprintf("Issues for filter %d (%s):", id, filter.Name))
}

// pageIssues prints one batch at a time and asks before fetching the next.
func pageIssues(ctx context.Context, s *Session, jql, heading string) error {
	fmt.Fprintln(s.Out, heading)
	startAt := 0
	fetched := 0
	for {
		page, err := s.Jira.SearchIssues(ctx, jql, startAt, s.Settings.IssueBatchSize)
		if err != nil {
			return fmt.Errorf("search issues: %w", err)
		}
		for _, issue := range page.Issues {
			fmt.Fprintf(s.Out, "- %s (ID: %s) - Link: %s\n", issue.Summary, issue.ID, issue.Link)
		}
		fetched += len(page.Issues)

		if fetched == 0 {
			fmt.Fprintln(s.Out, "No issues found.")
			return nil
		}
		if fetched >= page.Total || len(page.Issues) == 0 {
			return nil
		}

		more, err := s.Console.Confirm(ctx, fmt.Sprintf("Showing %d of %d issues. Load more?", fetched, page.Total))
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		startAt += len(page.Issues)
	}
}

func exportProjectIssues(ctx context.Context, s *Session) error {
	key, err := s.Console.Required(ctx, "Enter the project key")
	if err != nil {
		return err
	}
	target, err := s.Console.Required(ctx, "Output file (.csv or .xlsx)")
	if err != nil {
		return err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.Settings.OutputDir, target)
	}

	count, format, err := ExportProjectIssues(ctx, s.Jira, key, target, "", s.Settings.IssueBatchSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Export completed. Issues: %d, Format: %s, File: %s\n", count, format, target)
	return nil
}

// ExportProjectIssues writes every issue of a project to target. An empty
// format is inferred from the file extension. It returns the number of issues
// written and the format used.
func ExportProjectIssues(ctx context.Context, client jira.Client, projectKey, target, format string, batchSize int) (int, string, error) {
	if strings.TrimSpace(projectKey) == "" {
		return 0, "", fmt.Errorf("project key is required")
	}
	if batchSize <= 0 {
		batchSize = defaultIssueBatchSize
	}
	if strings.TrimSpace(format) == "" {
		format = output.DetectFormat(target)
	}
	writer, err := output.WriterForFormat(format)
	if err != nil {
		return 0, "", err
	}

	issues, err := collectIssues(ctx, client, projectJQL(projectKey), batchSize)
	if err != nil {
		return 0, "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, "", fmt.Errorf("create output directory: %w", err)
	}
	if err := writer.Write(target, issues); err != nil {
		return 0, "", err
	}
	return len(issues), format, nil
}

// collectIssues fetches every batch of a search without prompting.
func collectIssues(ctx context.Context, client jira.Client, jql string, batchSize int) ([]jira.Issue, error) {
	out := make([]jira.Issue, 0, batchSize)
	for {
		page, err := client.SearchIssues(ctx, jql, len(out), batchSize)
		if err != nil {
			return nil, fmt.Errorf("search issues: %w", err)
		}
		out = append(out, page.Issues...)
		if len(page.Issues) == 0 || len(out) >= page.Total {
			return out, nil
		}
	}
}

func projectJQL(key string) string {
	escaped := strings.ReplaceAll(strings.TrimSpace(key), `"`, `\"`)
	return fmt.Sprintf(`project = "%s"`, escaped)
}
