// Command kernelirc is a small inspection tool over the kernelir core: it
// builds the built-in demo kernels, and can dump their IR or run the
// if-conversion pass and dump the result, the way the teacher's wazero
// project ships cmd/wazerolint-style standalone inspection tools around its
// compiler internals.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kernelforge/kernelir/internal/ir"
	"github.com/kernelforge/kernelir/internal/ir/transform"
)

var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "kernelirc",
		Short: "Inspect kernelir's IR for the built-in demo kernels",
	}
	root.AddCommand(newDumpCmd())
	root.AddCommand(newIfConvertCmd())
	root.AddCommand(newListCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("kernelirc failed")
		os.Exit(1)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in demo kernel names",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(demoKernels))
			for n := range demoKernels {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <kernel>",
		Short: "Build a demo kernel and print its IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := demoKernels[args[0]]
			if !ok {
				return fmt.Errorf("unknown demo kernel %q", args[0])
			}
			ctx := ir.NewContext()
			m, mb, err := k.build(ctx)
			if err != nil {
				return err
			}
			if err := mb.Dispose(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ir.FormatMethod(m))
			return nil
		},
	}
}

func newIfConvertCmd() *cobra.Command {
	var maxBlockSize, maxSizeDifference int
	cmd := &cobra.Command{
		Use:   "ifconvert <kernel>",
		Short: "Build a demo kernel, run if-conversion, and print before/after IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := demoKernels[args[0]]
			if !ok {
				return fmt.Errorf("unknown demo kernel %q", args[0])
			}
			ctx := ir.NewContext()
			m, mb, err := k.build(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "-- before --")
			fmt.Fprint(cmd.OutOrStdout(), ir.FormatMethod(m))

			cfg, err := transform.NewConfig(maxBlockSize, maxSizeDifference)
			if err != nil {
				return err
			}
			pass := &transform.IfConversionPass{Config: cfg}
			if err := transform.RunPasses(mb, log, pass); err != nil {
				return err
			}
			if err := mb.Dispose(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "-- after --")
			fmt.Fprint(cmd.OutOrStdout(), ir.FormatMethod(m))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxBlockSize, "max-block-size", 2, "max values per if/else arm eligible for conversion")
	cmd.Flags().IntVar(&maxSizeDifference, "max-size-difference", 1, "max size difference between if/else arms eligible for conversion")
	return cmd
}
