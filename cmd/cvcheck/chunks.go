package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cvcheck/internal/chunker"
	"github.com/steveyegge/cvcheck/internal/extract"
	"github.com/steveyegge/cvcheck/internal/types"
)

var (
	chunksSize    int
	chunksOverlap int
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <document>",
	Short: "Show how a document would be chunked",
	Long: `Extract a document's text and show the chunks a comparison would send,
without contacting any model. Useful for tuning chunk_size and overlap.

Example:
  cvcheck chunks cv.pdf
  cvcheck chunks cv.txt --chunk-size 2000 --overlap 100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("chunk-size") {
			cfg.ChunkSize = chunksSize
		}
		if cmd.Flags().Changed("overlap") {
			cfg.Overlap = chunksOverlap
		}

		text, err := extract.NewRegistry(cfg.PDFServiceURL).Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		chunks, err := chunker.Split(text, cfg.ChunkSize, cfg.Overlap)
		if err != nil {
			return err
		}
		printChunks(cmd.OutOrStdout(), chunks, len([]rune(text)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chunksCmd)
	chunksCmd.Flags().IntVar(&chunksSize, "chunk-size", 0, "Chunk size in characters (default from config)")
	chunksCmd.Flags().IntVar(&chunksOverlap, "overlap", 0, "Characters shared by consecutive chunks (default from config)")
}

func printChunks(w io.Writer, chunks []types.Chunk, textLen int) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, c := range chunks {
		preview := strings.Join(strings.Fields(c.Text), " ")
		fmt.Fprintf(w, "%3d  [%d, %d)  %s\n", c.Index, c.Start, c.End, gray(truncateString(preview, 60)))
	}
	fmt.Fprintf(w, "%d chunks covering %d characters\n", len(chunks), textLen)
}
