package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/movemntdev/movement-cli-e2e/types"
)

// RenderTable writes the results table for s to w.
func RenderTable(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("CLI E2E Results: %s (%s)", s.Network, formatDuration(s.Duration)))

	t.AppendHeader(table.Row{"Test", "Duration", "Status", "Kind", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, o := range s.Outcomes {
		kind, msg := "", ""
		if o.Detail != nil {
			kind = string(o.Detail.Kind)
			msg = o.Detail.Message()
		}
		t.AppendRow(table.Row{o.Name, formatDuration(o.Duration), getResultString(o.Status), kind, msg})
	}
	if s.Fatal != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"(run aborted in " + s.State + ")", "", getResultString(types.TestStatusFail), "fatal", s.Fatal.Error()})
	}

	if s.Status() == types.TestStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		formatDuration(s.Duration),
		getResultString(s.Status()),
		fmt.Sprintf("%d passed", s.Passed()),
		fmt.Sprintf("%d failed", s.Failed()),
	})

	t.Render()
}
