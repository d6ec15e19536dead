package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/unit-converter/internal/core/converter"
	"github.com/kirillkom/unit-converter/internal/infrastructure/export/xlsx"
)

// newCmdUnits lists every category with its units. With --xlsx the same
// reference is written as a workbook instead.
func newCmdUnits() *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:     "units",
		Aliases: []string{"u"},
		Short:   "List supported categories and units",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := converter.New()
			if xlsxPath == "" {
				return printUnits(cmd.OutOrStdout(), catalog)
			}
			return exportUnits(xlsxPath, catalog)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the unit reference to this .xlsx file")
	cmd.MarkFlagFilename("xlsx", "xlsx")
	return cmd
}

func printUnits(w io.Writer, catalog xlsx.UnitCatalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, category := range catalog.Categories() {
		units, err := catalog.Units(category)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "[%s]\n", category.Label())
		for _, u := range units {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", u.Symbol, u.Name, strings.Join(u.Aliases, ", "))
		}
	}
	return tw.Flush()
}

func exportUnits(path string, catalog xlsx.UnitCatalog) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return xlsx.WriteUnitReference(f, catalog)
}
