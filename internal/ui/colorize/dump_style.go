package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register our custom dump style on package initialization
	_ = DumpDark
}

// DumpDark is a custom style for word dumps matching our color scheme
var DumpDark = styles.Register(chroma.MustNewStyle("dump-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",    // Default text white
	chroma.Background: "bg:#1e1e1e", // Dark background
	chroma.Comment:    "#FFFFFF",    // White annotations

	// Offsets and values
	chroma.LiteralNumber:        "#FF5F87", // Decimal numbers in pink
	chroma.LiteralNumberHex:     "#FF5F87", // Hex words in pink
	chroma.LiteralNumberInteger: "#FF5F87", // Integer literals in pink

	// Labels
	chroma.NameLabel: "#FFD700", // Offset labels in gold
	chroma.Name:      "#7C9C9D", // Generic names in teal

	// Operators and punctuation
	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#FFFFFF",

	// Inline ASCII previews
	chroma.String: "#EACD53", // Strings in golden
}))
