package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/pipeline"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	var (
		common commonFlags
		table  string
	)

	run := func() error {
		store, err := common.loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		p := pipeline.NewDefault(store, metrics.NewMetrics())
		exists, count, err := p.CheckExistence(context.Background(), table)
		if err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("exists: %t\ncount: %d\n", exists, count)
		return nil
	}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a table exists in Redshift",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "existence check", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVarP(&table, "table", "t", "", "table: <schema>.<table>")
	cmd.MarkFlagRequired("table")
	return cmd
}

func NewCreateCmd() *cobra.Command {
	var (
		common  commonFlags
		ddlFile string
	)

	run := func() error {
		ddl, err := os.ReadFile(ddlFile)
		if err != nil {
			return errors.Annotatef(err, "read %s", ddlFile)
		}
		store, err := common.loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		p := pipeline.NewDefault(store, metrics.NewMetrics())
		return p.CreateTable(context.Background(), string(ddl))
	}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Execute a CREATE TABLE statement read from a file",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "create table", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&ddlFile, "ddl", "", "file holding the CREATE TABLE statement")
	cmd.MarkFlagRequired("ddl")
	return cmd
}

func NewLoadCmd() *cobra.Command {
	var (
		common commonFlags
		table  string
		object string
	)

	run := func() error {
		store, err := common.loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		p := pipeline.NewDefault(store, metrics.NewMetrics())
		notices, err := p.BulkLoad(context.Background(), table, object)
		if err != nil {
			return errors.Trace(err)
		}
		for _, notice := range notices {
			fmt.Println(notice)
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Copy an uploaded csv object into a Redshift table",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "bulk load", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVarP(&table, "table", "t", "", "target table: <schema>.<table>")
	cmd.Flags().StringVarP(&object, "object", "o", "", "s3:// URI, or the name of a file uploaded under the configured prefix")
	cmd.MarkFlagRequired("table")
	cmd.MarkFlagRequired("object")
	return cmd
}
