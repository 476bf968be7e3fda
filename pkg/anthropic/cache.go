package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. The interview reuses the same system prompt on every turn,
// so later turns hit the warm prompt cache.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}
