package chat

import (
	"github.com/charmbracelet/glamour"
)

// noMarginStyle removes document margins so rendered markdown sits flush
// inside the viewport.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// markdownRenderer wraps glamour with chat-specific configuration.
// The fixed dark style avoids the terminal OSC query WithAutoStyle()
// performs, which leaks escape responses into the input stream.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdownRenderer(width int) (*markdownRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &markdownRenderer{renderer: r, width: width}, nil
}

func (r *markdownRenderer) Render(text string) string {
	out, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
