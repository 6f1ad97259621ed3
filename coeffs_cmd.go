package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hfprop/coeffs"
)

func newCoeffsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coeffs",
		Short: "Manage coefficient tables",
	}
	cmd.AddCommand(newCoeffsImportCmd(a), newCoeffsInfoCmd(a))
	return cmd
}

func newCoeffsImportCmd(a *app) *cobra.Command {
	var dir, storePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy COEFFnn.DAT/AUXnn.DAT tables into the Pebble store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Data.CoeffDir
			}
			if storePath == "" {
				storePath = a.cfg.Data.StorePath
			}
			if strings.TrimSpace(dir) == "" || strings.TrimSpace(storePath) == "" {
				return errors.New("coeffs import needs --dir and --store (or data.coeff_dir and data.store_path)")
			}
			store, err := coeffs.OpenStore(storePath, coeffs.StoreOptions{
				CacheBytes: int64(a.cfg.Data.StoreCacheMB) << 20,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}
			months, err := store.Import(cmd.Context(), coeffs.DirProvider{Dir: dir})
			if cerr := store.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if len(months) == 0 {
				return fmt.Errorf("no month tables found in %s", dir)
			}
			a.logger.Printf("Coeffs: imported months %v from %s into %s", months, dir, storePath)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d months\n", len(months))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "source directory (default data.coeff_dir)")
	cmd.Flags().StringVar(&storePath, "store", "", "Pebble store path (default data.store_path)")
	return cmd
}

func newCoeffsInfoCmd(a *app) *cobra.Command {
	var month int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "List the months the configured source can load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closer, err := a.provider()
			if err != nil {
				return err
			}
			defer closer()

			months := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
			if month != 0 {
				months = []int{month}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Month\tStatus\tSize")
			found := 0
			for _, m := range months {
				t, err := src.LoadMonth(cmd.Context(), m)
				switch {
				case errors.Is(err, coeffs.ErrMonthNotFound):
					fmt.Fprintf(tw, "%02d\tmissing\t-\n", m)
				case err != nil:
					fmt.Fprintf(tw, "%02d\t%v\t-\n", m, err)
				default:
					found++
					coeff, aux, err := t.MarshalBinary()
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%02d\tok\t%s\n", m, humanize.Bytes(uint64(len(coeff)+len(aux))))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if found == 0 {
				return coeffs.ErrMonthNotFound
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "only this month")
	return cmd
}
