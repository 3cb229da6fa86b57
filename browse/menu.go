package browse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
)

type HandlerFunc func(ctx context.Context, s *Session) error

// Command is one menu entry. A nil Run ends the session.
type Command struct {
	Key   string
	Label string
	Run   HandlerFunc
}

// Commands returns the menu in display order.
func Commands() []Command {
	return []Command{
		{Key: "1", Label: "List services", Run: listServices},
		{Key: "2", Label: "List projects", Run: listProjects},
		{Key: "3", Label: "List issues in a project", Run: listProjectIssues},
		{Key: "4", Label: "List all filters", Run: listFilters},
		{Key: "5", Label: "List all issues in a filter", Run: listFilterIssues},
		{Key: "6", Label: "List Confluence spaces", Run: listSpaces},
		{Key: "7", Label: "List documents in a Confluence space", Run: listSpaceDocuments},
		{Key: "8", Label: "Browse top-level pages of a space", Run: browsePageTree},
		{Key: "9", Label: "Download a Confluence page", Run: downloadPage},
		{Key: "10", Label: "Export issues in a project to CSV/Excel", Run: exportProjectIssues},
		{Key: "11", Label: "Show download history", Run: showHistory},
		{Key: "0", Label: "Exit"},
	}
}

func lookupCommand(commands []Command, choice string) (Command, bool) {
	choice = strings.TrimSpace(choice)
	for _, command := range commands {
		if command.Key == choice {
			return command, true
		}
	}
	return Command{}, false
}

func printMenu(out io.Writer, commands []Command) {
	fmt.Fprintln(out, color.Green.Sprint("\nChoose an option:"))
	for _, command := range commands {
		entry := fmt.Sprintf("%s. %s", command.Key, command.Label)
		if command.Run == nil {
			entry = color.Red.Sprint(entry)
		}
		fmt.Fprintln(out, entry)
	}
}
