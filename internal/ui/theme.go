package ui

import "strings"

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name                                          string
	Title, Muted, Accent, Success, Error, Pending string
	BoxUnchecked, BoxChecked                      string
	CornerTL, CornerTR, CornerBL, CornerBR        string
	H, V                                          string
	SymDone, SymUnchecked, SymInfo                string
}

var current = royal

var royal = Theme{
	Name:  "royal",
	Title: "\033[1;38;5;213m", // bold pink
	Muted: "\033[38;5;183m", Accent: "\033[38;5;177m",
	Success: "\033[38;5;220m", Error: fgRed, Pending: "\033[38;5;218m",
	BoxUnchecked: "♡", BoxChecked: "👑",
	CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
	H: "─", V: "│",
	SymDone: "✨", SymUnchecked: "♡", SymInfo: "👑",
}

// ThemeNames lists the accepted SetTheme values.
var ThemeNames = []string{"royal", "classic", "neon", "mono"}

// SetTheme switches the current theme. Unknown names fall back to royal.
func SetTheme(name string) {
	disableColor = false
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		current = Theme{
			Name:  "neon",
			Title: "\033[95m", // bright magenta
			Muted: fgGray, Accent: "\033[96m",
			Success: fgGreen, Error: fgRed, Pending: "\033[93m",
			BoxUnchecked: "◻", BoxChecked: "◼",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymDone: "✔", SymUnchecked: "•", SymInfo: "›",
		}
	case "mono":
		disableColor = true
		current = Theme{
			Name:         "mono",
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymDone: "x", SymUnchecked: "-", SymInfo: "*",
		}
	case "classic":
		current = Theme{
			Name:  "classic",
			Title: bold, Muted: fgGray, Accent: fgBlue,
			Success: fgGreen, Error: fgRed, Pending: fgYellow,
			BoxUnchecked: "☐", BoxChecked: "☑",
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			SymDone: symCheck, SymUnchecked: "•", SymInfo: "i",
		}
	default:
		current = royal
	}
}

// Expose what renderers need
func Current() Theme { return current }
