package cmd

import (
	"net"
	"os"

	"github.com/pingcap-inc/dwloader/config"
	"github.com/pingcap-inc/dwloader/pkg/apiservice"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag"
	"go.uber.org/zap"
)

type LogFormat enumflag.Flag

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

var LogFormatIds = map[LogFormat][]string{
	LogFormatText: {"text"},
	LogFormatJSON: {"json"},
}

// commonFlags are shared by every sub command.
type commonFlags struct {
	configFile string
	logFile    string
	logLevel   string
	logFormat  LogFormat
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolP("help", "", false, "help for this command")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "config.json", "config file path (json, yaml or toml)")
	cmd.Flags().StringVar(&f.logFile, "log.file", "", "log file path")
	cmd.Flags().StringVar(&f.logLevel, "log.level", "info", "log level")
	cmd.Flags().Var(enumflag.New(&f.logFormat, "format", LogFormatIds, enumflag.EnumCaseInsensitive), "log.format", "log format: text, json")
}

func (f *commonFlags) initLogger() error {
	logger, props, err := log.InitLogger(&log.Config{
		Level:  f.logLevel,
		Format: LogFormatIds[f.logFormat][0],
		File:   log.FileLogConfig{Filename: f.logFile},
	})
	if err != nil {
		return errors.Annotate(err, "Failed to init logger")
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

func (f *commonFlags) loadConfig() (*config.Store, error) {
	return config.Load(f.configFile)
}

// runCommand initializes logging and runs body, exiting non-zero on failure.
func runCommand(f *commonFlags, name string, body func() error) {
	if err := f.initLogger(); err != nil {
		panic(err)
	}
	if err := body(); err != nil {
		log.Error("Error running "+name, zap.Error(err))
		os.Exit(1)
	}
}

func runWithServer(service *apiservice.APIService, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Annotate(err, "Start API service failed")
	}

	log.Info("API service started", zap.String("address", addr))
	service.Serve(l)
	return nil
}
