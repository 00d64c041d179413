package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cvcheck/internal/pointer"
	"github.com/steveyegge/cvcheck/internal/types"
)

var indexColumns bool

var indexCmd = &cobra.Command{
	Use:   "index <record>",
	Short: "List the field addresses of a record",
	Long: `List every leaf field address of a record in the order the model sees them.

Example:
  cvcheck index form.json
  cvcheck index form.yaml --columns`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := loadRecord(args[0])
		if err != nil {
			return err
		}
		index, err := pointer.IndexJSON(record)
		if err != nil {
			return err
		}
		printIndex(cmd.OutOrStdout(), index, indexColumns)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexColumns, "columns", false, "Also show flat column names")
}

func printIndex(w io.Writer, index types.AddressIndex, columns bool) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	for i, addr := range index.Addresses() {
		if columns {
			fmt.Fprintf(w, "%4d  %s  %s\n", i, addr, gray(pointer.ToColumn(addr)))
			continue
		}
		fmt.Fprintf(w, "%4d  %s\n", i, addr)
	}
}
