package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go_ytpulse/internal/engine"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

const maxTitleRunes = 140

var tableHeader = []string{
	"Title", "Channel", "Views", "Subscribers", "Channel videos", "Country",
	"Monetizable", "RPM (USD)", "Live", "Published (UTC)", "Hour",
}

// DetailTable renders rows as a markdown table sorted by views, most first.
// Columns are padded to equal display width so the table also reads as plain text.
func DetailTable(rows []engine.VideoRow) string {
	sorted := make([]engine.VideoRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ViewCount != sorted[j].ViewCount {
			return sorted[i].ViewCount > sorted[j].ViewCount
		}
		return sorted[i].VideoID < sorted[j].VideoID
	})

	table := make([][]string, 0, len(sorted)+1)
	table = append(table, tableHeader)
	for _, r := range sorted {
		table = append(table, tableRow(r))
	}
	return renderMarkdownTable(table)
}

func tableRow(r engine.VideoRow) []string {
	published, hour := "-", "-"
	if !r.Published.IsZero() {
		published = r.Published.UTC().Format("2006-01-02 15:04")
		hour = fmt.Sprintf("%02d", r.Published.UTC().Hour())
	}
	live := ""
	if r.LiveDetailsPresent {
		live = "LIVE"
	}
	monetizable := "no"
	if r.Monetizable {
		monetizable = "yes"
	}
	return []string{
		LinkedTitle(r),
		escapeCell(r.ChannelTitle),
		strconv.FormatInt(r.ViewCount, 10),
		strconv.FormatInt(r.SubscriberCount, 10),
		strconv.FormatInt(r.ChannelVideoCount, 10),
		escapeCell(r.Country),
		monetizable,
		strconv.FormatFloat(r.EstimatedRPM, 'f', 2, 64),
		live,
		published,
		hour,
	}
}

// LinkedTitle returns the title, cut to 140 runes, as a markdown link to the video.
func LinkedTitle(r engine.VideoRow) string {
	title := truncateRunes(strings.TrimSpace(r.Title), maxTitleRunes)
	if title == "" {
		title = r.VideoID
	}
	anchor := `<a href="` + html.EscapeString(r.URL()) + `">` + html.EscapeString(title) + `</a>`
	md, err := htmltomarkdown.ConvertString(anchor)
	if err != nil || strings.TrimSpace(md) == "" {
		md = "[" + title + "](" + r.URL() + ")"
	}
	return escapeCell(strings.TrimSpace(md))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// escapeCell keeps a value inside one markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `\|`, "|")
	return strings.ReplaceAll(s, "|", `\|`)
}

// renderMarkdownTable pads every column to its widest cell, measured in
// terminal display width.
func renderMarkdownTable(table [][]string) string {
	if len(table) == 0 {
		return ""
	}
	cols := 0
	for _, row := range table {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	for _, row := range table {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for i := range widths {
		widths[i] = max(widths[i], 3)
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteString("|")
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	writeRow(table[0])
	sb.WriteString("|")
	for _, w := range widths {
		sb.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	sb.WriteString("\n")
	for _, row := range table[1:] {
		writeRow(row)
	}
	return sb.String()
}
