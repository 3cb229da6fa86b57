package output

import (
	"fmt"

	"atlbrowse/jira"

	"github.com/xuri/excelize/v2"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, issues []jira.Issue) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	for col, header := range issueHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, issue := range issues {
		row := i + 2
		for col, value := range issueRow(issue) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
		linkCell, _ := excelize.CoordinatesToCellName(len(issueHeaders), row)
		if issue.Link != "" {
			if err := file.SetCellHyperLink(sheet, linkCell, issue.Link, "External"); err != nil {
				return fmt.Errorf("set excel hyperlink %s: %w", linkCell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
