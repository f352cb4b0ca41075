package main

import (
	"strconv"
	"strings"

	"github.com/agleyzer/rbdl/internal/catalog"
	"github.com/agleyzer/rbdl/internal/rendition"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// renderListing renders the formats a catalog offers, one table per axis.
// The first column holds the value to pass to --video, --audio or --subtitles.
func renderListing(c *catalog.Catalog) string {
	var b strings.Builder

	videoRows := make([][]string, 0, len(c.Resolutions()))
	for _, v := range c.Resolutions() {
		videoRows = append(videoRows, []string{
			v.Key(),
			strconv.Itoa(v.Height) + "p",
			formatBandwidth(v.Bandwidth),
		})
	}
	b.WriteString(renderTable("VIDEO", []string{"Format", "Height", "Bandwidth"}, videoRows, []int{2}))
	b.WriteString("\n")

	for _, section := range []struct {
		title string
		kind  rendition.Kind
	}{
		{"AUDIO", rendition.Audio},
		{"SUBTITLES", rendition.Subtitles},
	} {
		rows := make([][]string, 0)
		for _, r := range c.Renditions(section.kind) {
			rows = append(rows, []string{r.Language, r.Name, displayLanguage(r.Language)})
		}
		b.WriteString(renderTable(section.title, []string{"Format", "Name", "Language"}, rows, nil))
		b.WriteString("\n")
	}

	return b.String()
}

func renderTable(title string, headers []string, rows [][]string, rightAligned []int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, col := range rightAligned {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      col + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// displayLanguage returns the English name of a language code, or an empty
// string when the code is not a valid BCP 47 tag.
func displayLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(tag)
}

func formatBandwidth(bps int) string {
	if bps <= 0 {
		return "-"
	}
	if bps >= 1_000_000 {
		return strconv.FormatFloat(float64(bps)/1_000_000, 'f', 1, 64) + " Mb/s"
	}
	return strconv.Itoa(bps/1000) + " kb/s"
}
