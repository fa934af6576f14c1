package main

import (
	"fmt"
	"os"

	"github.com/pingcap-inc/dwloader/cmd"
	"github.com/pingcap-inc/dwloader/version"
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:                "dwloader",
		Short:              "Upload csv and spreadsheet files to S3 and load them into Redshift",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			switch args[0] {
			case "--help", "-h":
				return cmd.Help()
			case "--version", "-v":
				fmt.Println(version.NewDWLoaderVersion().String())
				return nil
			default:
				return fmt.Errorf("unknown flag: %s\nRun `dwloader --help` for usage.", args[0])
			}
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Print the version of dwloader")

	rootCmd.AddCommand(
		// service
		cmd.NewServerCmd(),

		// one-shots
		cmd.NewUploadCmd(),
		cmd.NewSchemaCmd(),
		cmd.NewCheckCmd(),
		cmd.NewCreateCmd(),
		cmd.NewLoadCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
