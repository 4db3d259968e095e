// Package render presents backend answers into a turn's placeholder. Answers
// carrying result cards are swapped in with a single fade; everything else is
// treated as Markdown and revealed progressively.
package render

// BlockKind tells a Target how to draw a block.
type BlockKind int

const (
	// BlockMarkdown is a Markdown fragment holding one top-level node.
	BlockMarkdown BlockKind = iota
	// BlockCard is pre-built result card markup, shown verbatim.
	BlockCard
)

func (k BlockKind) String() string {
	if k == BlockCard {
		return "card"
	}
	return "markdown"
}

// Block is a unit appended whole.
type Block struct {
	Kind   BlockKind
	Source string
}

// Target is a placeholder region the renderer writes into. Implementations
// marshal calls onto their UI loop; calls arrive in order from one goroutine.
type Target interface {
	// Clear drops the loading skeleton and any previous content.
	Clear()
	// AppendText appends plain text to the current text run.
	AppendText(s string)
	// AppendBlock appends a complete block.
	AppendBlock(b Block)
	// SetOpacity sets content visibility between 0 and 1.
	SetOpacity(o float64)
	// ScrollToBottom keeps the newest output visible unless the user has
	// scrolled away.
	ScrollToBottom()
}
