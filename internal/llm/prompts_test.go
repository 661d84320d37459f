package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvec/internal/config"
)

type fakeCompleter struct {
	prompts []string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return "answer", nil
}

func TestPromptAugmenter(t *testing.T) {
	t.Run("Should describe tables from the sample", func(t *testing.T) {
		fc := &fakeCompleter{}
		out, err := NewPromptAugmenter(fc, "auditor").DescribeTable(context.Background(), "a, b\n1, 2")
		require.NoError(t, err)
		assert.Equal(t, "answer", out)
		assert.Equal(t, []string{"Please describe this table, here the first 5 rows : a, b\n1, 2"}, fc.prompts)
	})

	t.Run("Should wrap the document context and chunk", func(t *testing.T) {
		fc := &fakeCompleter{}
		_, err := NewPromptAugmenter(fc, "auditor").Contextualize(context.Background(), "DOC", "CHUNK")
		require.NoError(t, err)
		require.Len(t, fc.prompts, 1)
		p := fc.prompts[0]
		assert.Contains(t, p, "<context>DOC</context>")
		assert.Contains(t, p, "<chunk>CHUNK</chunk>")
		assert.Contains(t, p, "help the auditor search")
	})

	t.Run("Should omit the audience sentence when unset", func(t *testing.T) {
		assert.NotContains(t, ContextPrompt("", "d", "c"), "key words")
	})

	t.Run("Should propagate completer failures", func(t *testing.T) {
		cause := errors.New("timeout")
		_, err := NewPromptAugmenter(&fakeCompleter{err: cause}, "").Contextualize(context.Background(), "d", "c")
		require.ErrorIs(t, err, cause)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should build the local provider offline", func(t *testing.T) {
		aug, emb, err := New(config.ProviderConfig{Type: "local", Dimension: 32})
		require.NoError(t, err)
		assert.NotNil(t, aug)
		assert.Equal(t, "local", emb.Name())
	})

	t.Run("Should build the openai provider when the key is set", func(t *testing.T) {
		t.Setenv("DOCVEC_PROVIDER_KEY", "sk-x")
		_, emb, err := New(config.ProviderConfig{Type: "openai", APIKeyEnv: "DOCVEC_PROVIDER_KEY"})
		require.NoError(t, err)
		assert.Equal(t, "openai", emb.Name())
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, _, err := New(config.ProviderConfig{Type: "carrier-pigeon"})
		require.Error(t, err)
	})
}
