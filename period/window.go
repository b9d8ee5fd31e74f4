package period

import (
	"sort"
	"time"

	"f0oster/zbxspy/inventory"
)

// TrailingWindow filters stored dates down to the trailing days calendar
// days ending at now's date, inclusive, and returns them sorted ascending.
// Stored dates outside the window, including any in the future, are
// dropped. days below one yields nil.
func TrailingWindow(stored []string, now time.Time, days int) []string {
	if days < 1 {
		return nil
	}

	newest := inventory.Today(now)
	oldest := inventory.Today(now.AddDate(0, 0, -(days - 1)))

	var window []string
	for _, d := range stored {
		if d >= oldest && d <= newest {
			window = append(window, d)
		}
	}
	sort.Strings(window)
	return window
}
