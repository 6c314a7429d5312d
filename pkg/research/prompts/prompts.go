// Package prompts embeds the research stage prompt templates.
package prompts

import "embed"

//go:embed *.md
var PromptsFS embed.FS
