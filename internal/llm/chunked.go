package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/justabill/internal/sectioning"
)

// Limits applied when merging chunk summaries.
const (
	maxMergedBullets = 10
	maxMergedQuotes  = 3
)

// ChunkedSummarizer splits oversized sections into paragraph chunks, summarizes each
// with the wrapped Summarizer and merges the results.
type ChunkedSummarizer struct {
	inner     Summarizer
	maxTokens int
}

// NewChunkedSummarizer wraps inner. maxTokens <= 0 uses the sectioning default.
func NewChunkedSummarizer(inner Summarizer, maxTokens int) *ChunkedSummarizer {
	return &ChunkedSummarizer{inner: inner, maxTokens: maxTokens}
}

// Summarize implements Summarizer.
func (c *ChunkedSummarizer) Summarize(ctx context.Context, in SectionInput) (*Summary, error) {
	chunks := sectioning.Chunk(in.Text, c.maxTokens)
	if len(chunks) <= 1 {
		return c.inner.Summarize(ctx, in)
	}

	summaries := make([]*Summary, 0, len(chunks))
	for i, chunk := range chunks {
		part := in
		part.Text = chunk
		part.Heading = fmt.Sprintf("%s (part %d of %d)", in.Heading, i+1, len(chunks))
		s, err := c.inner.Summarize(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize chunk %d of %d: %w", i+1, len(chunks), err)
		}
		summaries = append(summaries, s)
	}
	return MergeSummaries(summaries), nil
}

// Close implements Summarizer.
func (c *ChunkedSummarizer) Close() error {
	return c.inner.Close()
}

// MergeSummaries concatenates chunk summaries in order, dropping duplicate entries and
// capping bullets and evidence quotes.
func MergeSummaries(summaries []*Summary) *Summary {
	merged := &Summary{}
	for _, s := range summaries {
		merged.PlainSummaryBullets = appendUnique(merged.PlainSummaryBullets, s.PlainSummaryBullets, maxMergedBullets)
		merged.KeyTerms = appendUnique(merged.KeyTerms, s.KeyTerms, 0)
		merged.WhoItAffects = appendUnique(merged.WhoItAffects, s.WhoItAffects, 0)
		merged.EvidenceQuotes = appendUnique(merged.EvidenceQuotes, s.EvidenceQuotes, maxMergedQuotes)
		merged.Uncertainties = appendUnique(merged.Uncertainties, s.Uncertainties, 0)
	}
	merged.normalize()
	return merged
}

// appendUnique appends items not already in dst, stopping at limit when limit > 0.
func appendUnique(dst, items []string, limit int) []string {
	for _, item := range items {
		if limit > 0 && len(dst) >= limit {
			break
		}
		seen := false
		for _, d := range dst {
			if d == item {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, item)
		}
	}
	return dst
}
