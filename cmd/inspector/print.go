package main

import (
	"fmt"
	"io"

	"github.com/NethermindEth/blockvault/blockstore"
	"github.com/NethermindEth/blockvault/core"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "    ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func PrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print <path>",
		Short: "Print the contents of a range of blocks",
		Long: `This subcommand prints the location and the decoded contents of blocks in the store.
Printing stops with an error at the first block that fails to decode.`,
		Args: cobra.ExactArgs(1),
		RunE: printBlocks,
	}
	cmd.Flags().Uint64P(fromF, "f", defaultFrom, fromUsage)
	cmd.Flags().Uint64P(lengthF, "n", defaultLength, lengthUsage)

	return cmd
}

func printBlocks(cmd *cobra.Command, args []string) error {
	if from, err := cmd.Flags().GetUint64(fromF); err != nil {
		return err
	} else if cmd.Flags().Changed(fromF) && from == 0 {
		return fmt.Errorf("the genesis block has the height 1, --%v must not be 0", fromF)
	}

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

	return PrintBlocks(cmd.OutOrStdout(), store, cfg.From, cfg.Length)
}

// PrintBlocks prints up to length blocks starting at the 1-based height from, or at the
// last block if from is 0 or past the end.
func PrintBlocks(out io.Writer, store *blockstore.Store, from, length uint64) error {
	count, err := store.IndexCount()
	if err != nil {
		return fmt.Errorf("failed to read index count from block store %q: %w", store.Dir(), err)
	}
	if count == 0 {
		_, err = fmt.Fprintln(out, "The block store is empty.")
		return err
	}

	// the store counts from 0, heights from 1
	start := count - 1
	if from != 0 && from <= count {
		start = from - 1
	}
	length = min(length, count-start)

	indices := make([]blockstore.BlockIndex, length)
	if err := store.ReadIndices(start, indices); err != nil {
		return fmt.Errorf("failed to read block indices: %w", err)
	}

	fmt.Fprintf(out, "Index file says there are %d blocks.\n", count)
	fmt.Fprintf(out, "Printing blocks %d-%d...\n", start+1, start+length)

	for i, idx := range indices {
		height := start + uint64(i) + 1
		fmt.Fprintf(out, "Block#%d starts at byte offset %d and is %d bytes long.\n", height, idx.Start, idx.Length)

		buf, err := store.ReadBlock(idx)
		if err != nil {
			return fmt.Errorf("Failed to read block № %d data: %w", height, err) //nolint:stylecheck
		}
		block, err := core.DecodeVersioned(buf)
		if err != nil {
			return fmt.Errorf("Failed to decode block № %d: %w", height, err) //nolint:stylecheck
		}

		fmt.Fprintf(out, "Block#%d :\n", height)
		dumpConfig.Fdump(out, block.V1)
	}
	return nil
}
