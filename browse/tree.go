package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atlbrowse/confluence"
	"atlbrowse/internal/prompt"
)

// IsTopLevel reports whether a page sits at or directly below the space root.
// Pages with a single ancestor are included on purpose; the rule approximates
// "near root" rather than detecting true roots.
func IsTopLevel(page confluence.Content) bool {
	return len(page.Ancestors) <= 1
}

func browsePageTree(ctx context.Context, s *Session) error {
	spaceKey, err := s.Console.Required(ctx, "Enter Confluence space key")
	if err != nil {
		return err
	}

	pages, err := discoverTopLevel(ctx, s, spaceKey)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintf(s.Out, "No top-level pages found in space %s.\n", spaceKey)
		return nil
	}

	titles := make([]string, 0, len(pages))
	for _, page := range pages {
		titles = append(titles, fmt.Sprintf("%s (ID: %s)", page.Title, page.ID))
	}
	idx, err := s.Console.SelectIndex(ctx, "Top-level pages:", titles)
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Fprintln(s.Out, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	return printTree(ctx, s, pages[idx])
}

// discoverTopLevel scans a space batch by batch. Pending operator input stops
// the scan before the next batch; a failed batch ends it. Either way pages
// found so far are returned.
func discoverTopLevel(ctx context.Context, s *Session, spaceKey string) ([]confluence.Content, error) {
	fmt.Fprintf(s.Out, "Scanning space %s for top-level pages (press Enter to stop)...\n", spaceKey)

	found := make([]confluence.Content, 0)
	start := 0
	for batch := 0; ; batch++ {
		if batch > 0 && s.Interrupted() {
			fmt.Fprintln(s.Out, "Scan stopped; using pages found so far.")
			return found, nil
		}

		reqCtx, cancel := context.WithTimeout(ctx, s.Settings.ScanTimeout)
		page, err := s.Wiki.ListContent(reqCtx, spaceKey, start, s.Settings.PageBatchSize, "ancestors")
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			reportFailure(s.Out, fmt.Errorf("scan space %s at offset %d: %w", spaceKey, start, err))
			return found, nil
		}

		for _, content := range page.Results {
			if IsTopLevel(content) {
				found = append(found, content)
			}
		}
		start += len(page.Results)
		fmt.Fprintf(s.Out, "Scanned %d pages, %d top-level so far.\n", start, len(found))

		if !page.HasNext() || len(page.Results) == 0 {
			return found, nil
		}
	}
}

type treeNode struct {
	page  confluence.Content
	depth int
}

// printTree prints root and its descendants pre-order, children in the order
// the service returns them, indented two spaces per level.
func printTree(ctx context.Context, s *Session, root confluence.Content) error {
	stack := []treeNode{{page: root}}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fmt.Fprintf(s.Out, "%s- %s (ID: %s)\n", strings.Repeat("  ", node.depth), node.page.Title, node.page.ID)

		children, err := s.Wiki.ListChildren(ctx, node.page.ID)
		if err != nil {
			return fmt.Errorf("list children of page %s: %w", node.page.ID, err)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, treeNode{page: children[i], depth: node.depth + 1})
		}
	}
	return nil
}
