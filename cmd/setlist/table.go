package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTracklist renders the distinct tracks of one file as a table,
// in discovery order.
func renderTracklist(tracks []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Tracklist (%d tracks)", len(tracks))

	tw.AppendHeader(table.Row{"#", "Track"})
	for i, track := range tracks {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), track})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
