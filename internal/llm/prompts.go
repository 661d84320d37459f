package llm

import (
	"context"
	"fmt"
	"strings"
)

// Completer sends a single user prompt to a chat model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PromptAugmenter implements domain.Augmenter on top of a chat Completer.
type PromptAugmenter struct {
	completer Completer
	audience  string
}

// NewPromptAugmenter builds an augmenter whose contextual prompts mention audience.
func NewPromptAugmenter(c Completer, audience string) *PromptAugmenter {
	return &PromptAugmenter{completer: c, audience: audience}
}

func (a *PromptAugmenter) DescribeTable(ctx context.Context, sample string) (string, error) {
	out, err := a.completer.Complete(ctx, DescribePrompt(sample))
	if err != nil {
		return "", fmt.Errorf("describe table: %w", err)
	}
	return out, nil
}

func (a *PromptAugmenter) Contextualize(ctx context.Context, docContext, chunk string) (string, error) {
	out, err := a.completer.Complete(ctx, ContextPrompt(a.audience, docContext, chunk))
	if err != nil {
		return "", fmt.Errorf("contextualize: %w", err)
	}
	return out, nil
}

// DescribePrompt asks for a description of a table given its first rows.
func DescribePrompt(sample string) string {
	return "Please describe this table, here the first 5 rows : " + sample
}

// ContextPrompt asks for a short retrieval context situating chunk within docContext.
func ContextPrompt(audience, docContext, chunk string) string {
	var b strings.Builder
	b.WriteString("<context>")
	b.WriteString(docContext)
	b.WriteString("</context>\n<chunk>")
	b.WriteString(chunk)
	b.WriteString("</chunk>\n")
	b.WriteString("Please give a short succinct context to situate this chunk within the overall document ")
	b.WriteString("for the purposes of improving search retrieval of the chunk. ")
	b.WriteString("Answer only with the succinct context and nothing else.")
	if audience != "" {
		fmt.Fprintf(&b, " Include key words that will help the %s search for the chunk efficiently.", audience)
	}
	return b.String()
}
