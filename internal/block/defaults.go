package block

// box returns the margin and padding keys shared by every default table.
func box(marginTop, marginBottom, paddingLeft string) Styles {
	return Styles{
		"marginTop":     marginTop,
		"marginBottom":  marginBottom,
		"marginLeft":    "0px",
		"marginRight":   "0px",
		"paddingTop":    "0px",
		"paddingBottom": "0px",
		"paddingLeft":   paddingLeft,
		"paddingRight":  "0px",
	}
}

func text(fontSize, color string, s Styles) Styles {
	return s.Merge(Styles{"fontSize": fontSize, "color": color})
}

// Built once; only clones leave this file.
var (
	defaultStyles = map[Type]Styles{
		TypeParagraph: text("16px", "#333333", box("0px", "12px", "0px")),
		TypeList:      text("16px", "#333333", box("0px", "12px", "40px")),
		TypeImage:     box("16px", "16px", "0px"),
		TypeYouTube:   box("16px", "16px", "0px"),
		TypeDivider:   box("24px", "24px", "0px"),
	}

	defaultHeadingStyles = map[Level]Styles{
		H1: text("32px", "#000000", box("0px", "16px", "0px")),
		H2: text("24px", "#000000", box("0px", "14px", "0px")),
		H3: text("20px", "#000000", box("0px", "12px", "0px")),
	}
)

// DefaultStyles returns a copy of the default styles for t. Headings use
// DefaultHeadingStyles; any other unknown type yields an empty map.
func DefaultStyles(t Type) Styles {
	if t == TypeHeading {
		return DefaultHeadingStyles(H1)
	}
	return defaultStyles[t].Merge(nil)
}

// DefaultHeadingStyles returns a copy of the default styles for a heading
// level. Levels outside 1-3 get an empty map.
func DefaultHeadingStyles(level Level) Styles {
	return defaultHeadingStyles[level].Merge(nil)
}

// Option lists offered to style pickers.
var (
	SpacingOptions  = []string{"0px", "4px", "8px", "12px", "16px", "24px", "32px", "40px", "48px", "64px"}
	FontSizeOptions = []string{"12px", "14px", "16px", "18px", "20px", "24px", "28px", "32px", "36px", "48px"}
	ColorOptions    = []string{
		"#000000", "#333333", "#666666", "#999999", "#CCCCCC", "#FFFFFF",
		"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF",
		"#FFA500", "#800080", "#008000",
	}
)
