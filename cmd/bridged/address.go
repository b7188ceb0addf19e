package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spacemeshos/go-evmbridge/address"
	"github.com/spacemeshos/go-evmbridge/common/types"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive and convert bridge addresses",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "reserved <name>",
			Short: "Print the reserved EVM address of a native account",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				name, err := types.ParseName(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), address.DeriveReserved(name).Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "contract <sender> <nonce>",
			Short: "Print the address of a contract created by sender with nonce",
			Args:  cobra.ExactArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				sender, err := address.Normalize(args[0])
				if err != nil {
					return err
				}
				nonce, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("parse nonce: %w", err)
				}
				fmt.Fprintln(c.OutOrStdout(), address.DeriveContract(sender, nonce).Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "normalize <hex>",
			Short: "Print an address in 20 and 24 bytes forms",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				addr, err := address.Normalize(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), addr.Hex())
				fmt.Fprintln(c.OutOrStdout(), address.Checksummed(addr))
				if name, ok := address.ReverseReserved(addr); ok {
					fmt.Fprintf(c.OutOrStdout(), "reserved for %s\n", name)
				}
				return nil
			},
		},
	)
	return cmd
}
