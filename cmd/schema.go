package cmd

import (
	"fmt"

	"github.com/pingcap-inc/dwloader/pkg/schemainfer"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewSchemaCmd() *cobra.Command {
	var (
		common commonFlags
		file   string
		table  string
	)

	run := func() error {
		ddl, err := schemainfer.InferSchema(file, table)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Println(ddl)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the proposed CREATE TABLE statement for a csv or spreadsheet file",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "schema inference", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "local csv or spreadsheet file")
	cmd.Flags().StringVarP(&table, "table", "t", "", "target table: <schema>.<table>")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("table")
	return cmd
}
