package main

import (
	"fmt"
	"os"

	"github.com/jonathan/justabill/internal/fetch"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/sectioning"
	"github.com/jonathan/justabill/internal/types"
	"github.com/spf13/cobra"
)

// sectionView is one section in the sectionize output, with the number of chunks the
// summarizer would split it into.
type sectionView struct {
	types.Section
	Chunks int `json:"chunks"`
}

func newSectionizeCmd(_ *app) *cobra.Command {
	var (
		file      string
		maxTokens int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "sectionize",
		Short: "Sectionize a local bill text file",
		Long:  "Extract text from a local .htm, .xml or .txt rendition, split it into sections and print them as JSON. Nothing is stored.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			text, err := fetch.ExtractText(body, fetch.ContentTypeFromPath(file))
			if err != nil {
				return err
			}
			sections := sectioning.Sectionize(text)

			if verbose {
				observability.NewPrinter(cmd.ErrOrStderr()).PrintSections(sections)
			}

			views := make([]sectionView, len(sections))
			for i, s := range sections {
				views[i] = sectionView{Section: s, Chunks: len(sectioning.Chunk(s.Text, maxTokens))}
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the bill text")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", sectioning.DefaultMaxTokens, "Chunk budget used to count chunks per section")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a formatted preview to stderr")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
