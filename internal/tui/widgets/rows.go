// ABOUTME: Cursor list rendering shared by the list screens
// ABOUTME: Draws the "> " cursor, selection checkbox and a scrolling window of rows

package widgets

import (
	"strings"

	"github.com/poremland/open-rss-client/internal/tui/icons"
	"github.com/poremland/open-rss-client/internal/tui/styles"
)

// RowState describes how a row is decorated
type RowState struct {
	Cursor    bool
	Selecting bool
	Selected  bool
}

// Row prefixes text with the cursor and, while selecting, a checkbox
func Row(text string, st RowState) string {
	cursor := "  "
	style := styles.RowNormal
	if st.Cursor {
		cursor = styles.Cursor.Render("> ")
	}
	if st.Selected {
		style = styles.RowSelected
	}

	box := ""
	if st.Selecting {
		if st.Selected {
			box = icons.Selected.String() + " "
		} else {
			box = icons.Unselected.String() + " "
		}
	}

	lines := strings.Split(text, "\n")
	lines[0] = cursor + box + style.Render(lines[0])
	pad := strings.Repeat(" ", 2+len([]rune(box)))
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + styles.RowDetail.Render(lines[i])
	}
	return strings.Join(lines, "\n")
}

// Window returns the [start, end) slice of n rows to show so that cursor
// stays visible within height rows. A non-positive height shows everything.
func Window(n, cursor, height int) (start, end int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start = cursor - height/2
	if start < 0 {
		start = 0
	}
	end = start + height
	if end > n {
		end = n
		start = end - height
	}
	return start, end
}
