package icon

// Icon identifies a registered UI symbol.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Play
	Stop
	Question
)

// icons is the global registry mapping identifiers to their per-variant representations.
var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "x",
		kaomoji: "(╯°□°)╯",
		squares: "🟥",
	},
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "+",
		kaomoji: "(￣ー￣)ｂ",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(￣ヘ￣)",
		squares: "🟨",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "ヽ(・∀・)ﾉ",
		squares: "🟦",
	},
	Stop: {
		emoji:   "⏹️",
		nerd:    "",
		plain:   "#",
		kaomoji: "(-_-)",
		squares: "🟫",
	},
	Question: {
		emoji:   "❓",
		nerd:    "",
		plain:   "?",
		kaomoji: "(・・?)",
		squares: "🟪",
	},
}
