package main

import (
	"context"
	"os"
	"time"

	"github.com/losfair/retls/log"

	"github.com/spf13/cobra"
)

var (
	globalCtx    context.Context
	configPath   string
	workingDir   string
	disableColor bool
	proxy        proxyFlags
)

var mainCommand = &cobra.Command{
	Use:              "retls",
	Short:            "TLS re-encryption proxy",
	PersistentPreRun: preRun,
	Run:              commandRun.Run,
	Args:             cobra.NoArgs,
}

func init() {
	mainCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "set configuration file path")
	mainCommand.PersistentFlags().StringVarP(&workingDir, "directory", "D", "", "set working directory")
	mainCommand.PersistentFlags().BoolVarP(&disableColor, "disable-color", "", false, "disable color output")
	proxy.register(mainCommand.PersistentFlags())
}

func main() {
	if err := mainCommand.Execute(); err != nil {
		log.Fatal(err)
	}
}

func preRun(cmd *cobra.Command, args []string) {
	globalCtx = context.Background()
	if disableColor {
		log.SetStdLogger(log.NewFactory(log.Formatter{BaseTime: time.Now(), DisableColors: true}, os.Stderr).Logger())
	}
	if workingDir != "" {
		_, err := os.Stat(workingDir)
		if err != nil {
			os.MkdirAll(workingDir, 0o777)
		}
		if err := os.Chdir(workingDir); err != nil {
			log.Fatal(err)
		}
	}
	err := proxy.bindEnvironment(cmd.Flags(), os.LookupEnv)
	if err != nil {
		log.Fatal(err)
	}
}
