package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"atlbrowse/jira"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, issues []jira.Issue) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(issueHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, issue := range issues {
		if err := writer.Write(issueRow(issue)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
