package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pingcap-inc/dwloader/pkg/metrics"
	"github.com/pingcap-inc/dwloader/pkg/pipeline"
	"github.com/pingcap-inc/dwloader/pkg/upload"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewUploadCmd() *cobra.Command {
	var (
		common       commonFlags
		file         string
		pollInterval time.Duration
	)

	run := func() error {
		store, err := common.loadConfig()
		if err != nil {
			return errors.Trace(err)
		}
		p := pipeline.NewDefault(store, metrics.NewMetrics())
		job, err := p.Upload(context.Background(), file)
		if err != nil {
			return errors.Trace(err)
		}

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for !job.Status().Done() {
			<-ticker.C
			log.Info("Upload progress", zap.String("job", job.ID), zap.Int("progress", job.Progress()))
		}
		p.Wait()

		if job.Status() == upload.StatusFailed {
			return job.Err()
		}
		fmt.Println(job.Destination())
		return nil
	}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a csv or spreadsheet file to the configured bucket",
		Run: func(_ *cobra.Command, _ []string) {
			runCommand(&common, "upload", run)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "local csv or spreadsheet file")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "interval between progress reports")
	cmd.MarkFlagRequired("file")
	return cmd
}
