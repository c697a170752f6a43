package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mosn/layotto/host"
)

func newIDCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "id <module.wasm>",
		Short: "Print the function id a module reports through proxy_get_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(cmd)
			if err != nil {
				return err
			}
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := host.NewExecutor(ctx, host.WithLogger(logger))
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			p, err := e.LoadPlugin(ctx, wasmBytes)
			if err != nil {
				return err
			}
			id, err := p.ID(ctx)
			if err != nil {
				return err
			}
			if id == "" {
				return fmt.Errorf("%s does not report an id", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
