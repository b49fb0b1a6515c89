package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/doridoridoriand/pingtray/internal/targets"
)

// PrintTargets writes the target list as a table.
func PrintTargets(w io.Writer, list []targets.Target) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no targets configured")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Address", "Label", "Check"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, tgt := range list {
		check := "icmp"
		if tgt.IsHTTP() {
			check = "http"
		}
		table.Append([]string{strconv.Itoa(i + 1), tgt.Address, tgt.Label, check})
	}
	table.Render()
}
