package stats

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gasweep/internal/model"
)

// WriteSummaryTable renders rows as an aligned console table.
func WriteSummaryTable(w io.Writer, rows []model.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, strings.Join(SummaryColumns, "\t")+"\t"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%g\t%d\t%d\t%d\t%.2f\t%d\t%d\t%d\t%.3f\t\n",
			row.Mode,
			row.CrossoverRate,
			row.PopulationSize,
			row.Generations,
			row.Runs,
			row.SR,
			row.AES,
			row.MinGen,
			row.MaxGen,
			row.MeanTime,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
