package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSummarizer struct {
	inputs []SectionInput
	err    error
	closed bool
}

func (r *recordingSummarizer) Summarize(_ context.Context, in SectionInput) (*Summary, error) {
	r.inputs = append(r.inputs, in)
	if r.err != nil {
		return nil, r.err
	}
	n := len(r.inputs)
	return &Summary{
		PlainSummaryBullets: []string{fmt.Sprintf("bullet %d", n), "shared bullet"},
		KeyTerms:            []string{"Secretary"},
		EvidenceQuotes:      []string{fmt.Sprintf("quote %d", n)},
	}, nil
}

func (r *recordingSummarizer) Close() error {
	r.closed = true
	return nil
}

func TestChunkedSummarizer_ShortTextPassesThrough(t *testing.T) {
	inner := &recordingSummarizer{}
	s := NewChunkedSummarizer(inner, 100)

	in := SectionInput{SectionKey: "SEC. 1", Heading: "SHORT TITLE", Text: "Short."}
	_, err := s.Summarize(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, inner.inputs, 1)
	assert.Equal(t, in, inner.inputs[0])
}

func TestChunkedSummarizer_SplitsAndMerges(t *testing.T) {
	inner := &recordingSummarizer{}
	// 10 tokens = 40 characters per chunk
	s := NewChunkedSummarizer(inner, 10)

	paragraphs := []string{strings.Repeat("a", 30), strings.Repeat("b", 30), strings.Repeat("c", 30), strings.Repeat("d", 30)}
	merged, err := s.Summarize(context.Background(), SectionInput{SectionKey: "SEC. 9", Heading: "GRANTS", Text: strings.Join(paragraphs, "\n\n")})
	require.NoError(t, err)

	require.Len(t, inner.inputs, 4)
	assert.Equal(t, "GRANTS (part 1 of 4)", inner.inputs[0].Heading)
	assert.Equal(t, "SEC. 9", inner.inputs[3].SectionKey)
	assert.Equal(t, strings.Repeat("d", 30), inner.inputs[3].Text)

	assert.Equal(t, []string{"bullet 1", "shared bullet", "bullet 2", "bullet 3", "bullet 4"}, merged.PlainSummaryBullets)
	assert.Equal(t, []string{"Secretary"}, merged.KeyTerms)
	assert.Equal(t, []string{"quote 1", "quote 2", "quote 3"}, merged.EvidenceQuotes)
	assert.NotNil(t, merged.Uncertainties)
}

func TestChunkedSummarizer_ChunkError(t *testing.T) {
	inner := &recordingSummarizer{err: errors.New("boom")}
	s := NewChunkedSummarizer(inner, 10)

	_, err := s.Summarize(context.Background(), SectionInput{Text: strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30)})
	assert.ErrorContains(t, err, "chunk 1 of 2")
}

func TestChunkedSummarizer_Close(t *testing.T) {
	inner := &recordingSummarizer{}
	require.NoError(t, NewChunkedSummarizer(inner, 0).Close())
	assert.True(t, inner.closed)
}

func TestMergeSummaries_CapsBullets(t *testing.T) {
	var parts []*Summary
	for i := 0; i < 4; i++ {
		parts = append(parts, &Summary{PlainSummaryBullets: []string{
			fmt.Sprintf("%d-a", i), fmt.Sprintf("%d-b", i), fmt.Sprintf("%d-c", i),
		}})
	}

	merged := MergeSummaries(parts)
	assert.Len(t, merged.PlainSummaryBullets, maxMergedBullets)
	assert.Equal(t, "0-a", merged.PlainSummaryBullets[0])
}
