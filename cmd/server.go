package cmd

import (
	"github.com/pingcap-inc/dwloader/pkg/apiservice"
	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/pipeline"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
)

func NewServerCmd() *cobra.Command {
	var (
		common commonFlags
		addr   string
	)

	run := func() error {
		store, err := common.loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		if addr == "" {
			addr = store.Snapshot().API.Addr
		}

		metric := metrics.NewMetrics()
		p := pipeline.NewDefault(store, metric)
		if err := runWithServer(apiservice.New(p, metric), addr); err != nil {
			return errors.Trace(err)
		}

		log.Info("Waiting for the running upload to finish")
		p.Wait()
		return nil
	}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the HTTP API to upload files and load them into Redshift",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "API server", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to api.addr in the config file")
	return cmd
}
