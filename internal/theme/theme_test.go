package theme

import "testing"

func TestForNameResolvesPalettes(t *testing.T) {
	if ForName("light") != &lightStyles {
		t.Fatal("light should resolve to the light palette")
	}
	if ForName("dark") != &darkStyles {
		t.Fatal("dark should resolve to the dark palette")
	}
	if ForName("solarized") != &darkStyles {
		t.Fatal("unknown names should fall back to dark")
	}
	if Default() != &darkStyles {
		t.Fatal("Default should be the dark palette")
	}
}

func TestSelectedRowKeepsHighContrast(t *testing.T) {
	for _, styles := range []*Styles{&darkStyles, &lightStyles} {
		if !styles.SelectedRow.GetBold() {
			t.Fatal("selected row should be bold")
		}
		if styles.SelectedRow.GetBackground() == styles.SelectedRow.GetForeground() {
			t.Fatal("selected row needs distinct foreground and background")
		}
	}
}
