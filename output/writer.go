package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"atlbrowse/jira"
)

var issueHeaders = []string{"Key", "ID", "Summary", "Status", "Link"}

type Writer interface {
	Write(path string, issues []jira.Issue) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DetectFormat infers the export format from the file extension, defaulting
// to csv.
func DetectFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func issueRow(issue jira.Issue) []string {
	return []string{issue.Key, issue.ID, issue.Summary, issue.Status, issue.Link}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
