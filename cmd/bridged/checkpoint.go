package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-evmbridge/checkpoint"
	"github.com/spacemeshos/go-evmbridge/cmd"
)

func newCheckpointCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "checkpoint",
		Short: "Export and restore the bridge state",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Write a checkpoint of the state under the data folder",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				conf, err := cmd.LoadConfig(c)
				if err != nil {
					return err
				}
				l, err := newLoggers(conf.Logging)
				if err != nil {
					return err
				}
				st, err := openState(conf, l.storage)
				if err != nil {
					return err
				}
				defer st.close()
				fname, err := checkpoint.Generate(c.Context(), afero.NewOsFs(), st.db, conf.DataDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), fname)
				return nil
			},
		},
		&cobra.Command{
			Use:   "recover <uri>",
			Short: "Restore a checkpoint into an empty data folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				conf, err := cmd.LoadConfig(c)
				if err != nil {
					return err
				}
				l, err := newLoggers(conf.Logging)
				if err != nil {
					return err
				}
				st, err := openState(conf, l.storage)
				if err != nil {
					return err
				}
				defer st.close()
				cfg := conf.Recovery
				cfg.Uri = args[0]
				cp, err := checkpoint.Recover(c.Context(), l.app.Named("checkpoint"), afero.NewOsFs(), st.db, conf.DataDir, cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), cp.Data.CheckpointId)
				return nil
			},
		},
	)
	return c
}
