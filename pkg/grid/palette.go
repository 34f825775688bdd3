package grid

// =============================================================================
// Palette
// =============================================================================

// NumColors is the size of the palette and one past the largest valid cell value.
const NumColors = 10

// MinCell and MaxCell bound the valid cell values.
const (
	MinCell = 0
	MaxCell = NumColors - 1
)

// palette is indexed by cell value. It is never written after init;
// callers only ever see copies through Palette and Color.
var palette = [NumColors]string{
	"#000000", // 0 black
	"#0074D9", // 1 blue
	"#FF4136", // 2 red
	"#2ECC40", // 3 green
	"#FFDC00", // 4 yellow
	"#AAAAAA", // 5 grey
	"#F012BE", // 6 magenta
	"#FF851B", // 7 orange
	"#7FDBFF", // 8 sky
	"#870C25", // 9 maroon
}

// colorNames are human-readable names used in legends and terminal output.
var colorNames = [NumColors]string{
	"black", "blue", "red", "green", "yellow",
	"grey", "magenta", "orange", "sky", "maroon",
}

// Palette returns a copy of the color palette.
func Palette() [NumColors]string {
	return palette
}

// Color returns the hex color for a cell value.
// Returns false if the value is outside [MinCell, MaxCell].
func Color(v int) (string, bool) {
	if v < MinCell || v > MaxCell {
		return "", false
	}
	return palette[v], true
}

// ColorName returns the name of the color for a cell value, or "invalid".
func ColorName(v int) string {
	if v < MinCell || v > MaxCell {
		return "invalid"
	}
	return colorNames[v]
}

// ValidCell reports whether v is a valid cell value.
func ValidCell(v int) bool {
	return v >= MinCell && v <= MaxCell
}
