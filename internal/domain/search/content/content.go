package content

// BlockType identifies the presentation block kind.
type BlockType string

// Text is the only block type currently emitted.
const Text BlockType = "text"

// Block is a single presentation block of a search response.
type Block struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// NewText creates a text block.
func NewText(text string) Block {
	return Block{Type: Text, Text: text}
}
