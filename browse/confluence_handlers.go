package browse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"atlbrowse/confluence"
	"atlbrowse/storage"

	"github.com/dustin/go-humanize"
)

const historyListLimit = 20

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func listSpaces(ctx context.Context, s *Session) error {
	spaces, err := s.Wiki.ListSpaces(ctx)
	if err != nil {
		return fmt.Errorf("list spaces: %w", err)
	}
	if len(spaces) == 0 {
		fmt.Fprintln(s.Out, "No Confluence spaces found.")
		return nil
	}
	fmt.Fprintln(s.Out, "Confluence spaces:")
	for _, space := range spaces {
		fmt.Fprintf(s.Out, "- %s (Key: %s)\n", space.Name, space.Key)
	}
	return nil
}

func listSpaceDocuments(ctx context.Context, s *Session) error {
	spaceKey, err := s.Console.Required(ctx, "Enter Confluence space key")
	if err != nil {
		return err
	}

	fmt.Fprintf(s.Out, "Documents in Confluence space %s:\n", spaceKey)
	start := 0
	for {
		page, err := s.Wiki.ListContent(ctx, spaceKey, start, s.Settings.PageBatchSize)
		if err != nil {
			return fmt.Errorf("list documents in %s: %w", spaceKey, err)
		}
		for _, content := range page.Results {
			fmt.Fprintf(s.Out, "- %s - Link: %s\n", content.Title, confluence.WebURL(s.BaseURL, content.Links.WebUI))
		}
		start += len(page.Results)

		if start == 0 {
			fmt.Fprintln(s.Out, "No documents found.")
			return nil
		}
		if !page.HasNext() || len(page.Results) == 0 {
			return nil
		}
		more, err := s.Console.Confirm(ctx, fmt.Sprintf("Showing %d documents. Load more?", start))
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func downloadPage(ctx context.Context, s *Session) error {
	pageID, err := s.Console.Required(ctx, "Enter Confluence page ID")
	if err != nil {
		return err
	}

	content, raw, err := s.Wiki.GetContent(ctx, pageID)
	if err != nil {
		return fmt.Errorf("get page %s: %w", pageID, err)
	}
	body := content.StorageValue()
	if strings.TrimSpace(body) == "" {
		fmt.Fprintf(s.Out, "Page %s has no body. Raw response:\n%s\n", pageID, string(raw))
		return nil
	}

	if err := os.MkdirAll(s.Settings.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(s.Settings.OutputDir, PageFileName(pageID))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write page %s: %w", pageID, err)
	}
	size := int64(len(body))
	fmt.Fprintf(s.Out, "Saved %q to %s (%s).\n", content.Title, path, humanize.Bytes(uint64(size)))

	if s.History != nil {
		if _, err := s.History.InsertDownload(storage.Download{
			PageID:       pageID,
			Title:        content.Title,
			SpaceKey:     content.SpaceKey(),
			Path:         path,
			Bytes:        size,
			DownloadedAt: time.Now(),
		}); err != nil {
			fmt.Fprintf(s.Out, "Warning: download not recorded in history: %v\n", err)
		}
	}
	return nil
}

// PageFileName derives the output file name from a page ID.
func PageFileName(pageID string) string {
	return fmt.Sprintf("page_%s.html", unsafeFileChars.ReplaceAllString(strings.TrimSpace(pageID), "_"))
}

func showHistory(ctx context.Context, s *Session) error {
	if s.History == nil {
		fmt.Fprintln(s.Out, "Download history is not available.")
		return nil
	}
	downloads, err := s.History.ListDownloads(historyListLimit)
	if err != nil {
		return fmt.Errorf("read download history: %w", err)
	}
	PrintDownloads(s.Out, downloads)
	return nil
}
