package browse

import (
	"fmt"
	"io"

	"atlbrowse/storage"

	"github.com/dustin/go-humanize"
)

// PrintDownloads writes one line per download record.
func PrintDownloads(out io.Writer, downloads []storage.Download) {
	if len(downloads) == 0 {
		fmt.Fprintln(out, "No pages downloaded yet.")
		return
	}
	fmt.Fprintln(out, "Downloaded pages:")
	for _, d := range downloads {
		space := d.SpaceKey
		if space == "" {
			space = "?"
		}
		fmt.Fprintf(
			out,
			"- %s (ID: %s, space %s) -> %s, %s, %s\n",
			d.Title,
			d.PageID,
			space,
			d.Path,
			humanize.Bytes(uint64(d.Bytes)),
			humanize.Time(d.DownloadedAt),
		)
	}
}
