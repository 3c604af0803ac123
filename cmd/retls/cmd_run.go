package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/losfair/retls"
	C "github.com/losfair/retls/constant"
	"github.com/losfair/retls/log"
	"github.com/losfair/retls/option"
	E "github.com/sagernet/sing/common/exceptions"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var commandRun = &cobra.Command{
	Use:   "run",
	Short: "Run service",
	Run: func(cmd *cobra.Command, args []string) {
		err := run(cmd.Flags())
		if err != nil {
			log.Fatal(err)
		}
	},
	Args: cobra.NoArgs,
}

func init() {
	mainCommand.AddCommand(commandRun)
}

func readConfigAt(path string) (option.Options, error) {
	var (
		configContent []byte
		err           error
	)
	if path == "stdin" {
		configContent, err = io.ReadAll(os.Stdin)
	} else {
		configContent, err = os.ReadFile(path)
	}
	if err != nil {
		return option.Options{}, E.Cause(err, "read config at ", path)
	}
	var options option.Options
	err = options.UnmarshalJSON(configContent)
	if err != nil {
		return option.Options{}, E.Cause(err, "decode config at ", path)
	}
	return options, nil
}

// readOptions merges, from lowest to highest precedence, the configuration
// file, the environment and the command line.
func readOptions(flags *pflag.FlagSet) (option.Options, error) {
	var (
		options option.Options
		err     error
	)
	if configPath != "" {
		options, err = readConfigAt(configPath)
		if err != nil {
			return option.Options{}, err
		}
	}
	err = proxy.apply(flags, &options)
	if err != nil {
		return option.Options{}, err
	}
	if disableColor {
		if options.Log == nil {
			options.Log = &option.LogOptions{}
		}
		options.Log.DisableColor = true
	}
	return options, nil
}

func create(flags *pflag.FlagSet) (*box.Box, error) {
	options, err := readOptions(flags)
	if err != nil {
		return nil, err
	}
	instance, err := box.New(box.Options{
		Context: globalCtx,
		Options: options,
	})
	if err != nil {
		return nil, E.Cause(err, "create service")
	}
	err = instance.Start()
	if err != nil {
		return nil, E.Cause(err, "start service")
	}
	return instance, nil
}

func run(flags *pflag.FlagSet) error {
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(osSignals)
	instance, err := create(flags)
	if err != nil {
		return err
	}
	fatal := make(chan error, 1)
	go func() {
		fatal <- instance.Wait()
	}()
	select {
	case <-osSignals:
		closeCtx, closed := context.WithCancel(context.Background())
		go closeMonitor(closeCtx)
		instance.Close()
		closed()
		return nil
	case err = <-fatal:
		instance.Close()
		return E.Cause(err, "service stopped")
	}
}

func closeMonitor(ctx context.Context) {
	time.Sleep(C.StopTimeout)
	select {
	case <-ctx.Done():
		return
	default:
	}
	log.Fatal("retls did not close!")
}
