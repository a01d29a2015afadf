// ABOUTME: Output helpers shared by the CLI commands
// ABOUTME: Colored status lines, JSON encoding and feed/item tables

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/poremland/open-rss-client/internal/client"
	"github.com/poremland/open-rss-client/internal/feedtext"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

const titleWidth = 60

func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %v\n", err)
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, format+"\n", args...)
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError(w, err)
		return exitError
	}
	fmt.Fprintln(w, string(data))
	return exitOK
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderRow(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...)
}

// formatFeedsHuman renders feeds. all selects the subscription view (uri) over
// the unread view (count).
func formatFeedsHuman(feeds []client.Feed, all bool) string {
	if all {
		t := newTable("ID", "NAME", "URI")
		for _, f := range feeds {
			t.Row(strconv.FormatInt(f.ID, 10), orDefault(f.Name, "No Name"), orDefault(f.URI, "No Link"))
		}
		return t.Render()
	}
	t := newTable("ID", "NAME", "UNREAD")
	for _, f := range feeds {
		t.Row(strconv.FormatInt(f.ID, 10), f.Name, strconv.Itoa(f.Count))
	}
	return t.Render()
}

func formatItemsHuman(items []client.FeedItem) string {
	t := newTable("ID", "TITLE", "LINK")
	for _, it := range items {
		t.Row(
			strconv.FormatInt(it.ID, 10),
			feedtext.Truncate(orDefault(feedtext.Title(it.Title), "No Title"), titleWidth),
			orDefault(it.Link, "No Link"),
		)
	}
	return t.Render()
}

func formatItemHuman(it client.FeedItem) string {
	title := orDefault(feedtext.Title(it.Title), "No Title")
	out := color.New(color.Bold).Sprint(title) + "\n"
	out += dimColor.Sprint(orDefault(it.Link, "No Link")) + "\n\n"
	out += orDefault(feedtext.StripTags(it.Description), "No Description")
	if img := feedtext.FirstImage(it.Description); img != "" {
		out += "\n\nImage: " + img
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
