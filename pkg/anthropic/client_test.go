package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSDKMessages(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{Role: "user", Content: "Describe your AI system."},
		{Role: "assistant", Content: "It is a chatbot."},
	}

	out := toSDKMessages(msgs)
	require.Len(t, out, 2)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
}

func TestToSDKSystemBlocks(t *testing.T) {
	t.Parallel()

	blocks := toSDKSystemBlocks(BuildCachedSystemBlocks("You are a compliance analyst."))
	require.Len(t, blocks, 1)
	assert.Equal(t, "You are a compliance analyst.", blocks[0].Text)
	assert.Equal(t, sdk.CacheControlEphemeralTTL("5m"), blocks[0].CacheControl.TTL)
}

func TestToSDKSystemBlocksNoCache(t *testing.T) {
	t.Parallel()

	blocks := toSDKSystemBlocks([]SystemBlock{{Text: "plain"}})
	require.Len(t, blocks, 1)
	assert.Equal(t, "plain", blocks[0].Text)
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "first "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first second", ExtractText(resp))
	assert.Equal(t, "", ExtractText(nil))
}
