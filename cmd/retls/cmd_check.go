package main

import (
	"github.com/losfair/retls"
	"github.com/losfair/retls/log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var commandCheck = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and key material",
	Run: func(cmd *cobra.Command, args []string) {
		err := check(cmd.Flags())
		if err != nil {
			log.Fatal(err)
		}
	},
	Args: cobra.NoArgs,
}

func init() {
	mainCommand.AddCommand(commandCheck)
}

func check(flags *pflag.FlagSet) error {
	options, err := readOptions(flags)
	if err != nil {
		return err
	}
	instance, err := box.New(box.Options{
		Context: globalCtx,
		Options: options,
	})
	if err != nil {
		return err
	}
	return instance.Close()
}
