package main

import (
	"fmt"
	"io"

	"github.com/NethermindEth/blockvault/blockstore"
	"github.com/NethermindEth/blockvault/core"
	"github.com/NethermindEth/blockvault/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func InfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Retrieve block store information",
		Long:  `This subcommand displays the size of the store files and the latest block.`,
		Args:  cobra.ExactArgs(1),
		RunE:  storeInfo,
	}
}

func storeInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return PrintInfo(cmd.OutOrStdout(), store)
}

// PrintInfo renders a table describing store and its latest block.
func PrintInfo(out io.Writer, store *blockstore.Store) error {
	stats, err := store.Stats()
	if err != nil {
		return err
	}

	access := "read-write"
	if store.ReadOnly() {
		access = "read-only"
	}
	rows := [][]string{
		{"Directory", store.Dir()},
		{"Access", access},
		{"Blocks", fmt.Sprintf("%d", stats.Blocks)},
		{"Data size", utils.DataSize(stats.DataBytes).String()},
		{"Index size", utils.DataSize(stats.IndexBytes).String()},
	}

	if stats.Blocks > 0 {
		b, err := store.BlockBytesAt(stats.Blocks)
		if err != nil {
			return err
		}
		head, err := core.DecodeVersioned(b)
		if err != nil {
			return fmt.Errorf("Failed to decode block № %d: %w", stats.Blocks, err) //nolint:stylecheck
		}
		hash, err := head.Hash()
		if err != nil {
			return err
		}
		header := head.Header()
		rows = append(rows,
			[]string{"Head height", fmt.Sprintf("%d", header.Height)},
			[]string{"Head hash", hash.String()},
			[]string{"Head timestamp", header.Timestamp().UTC().Format("2006-01-02 15:04:05.000 MST")},
			[]string{"Head signatures", fmt.Sprintf("%d", head.Signatures().Len())},
		)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Property", "Value"})
	table.AppendBulk(rows)
	table.Render()
	return nil
}
