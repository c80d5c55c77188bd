package l10n

import "testing"

func TestT(t *testing.T) {
	tests := []struct {
		description string
		got         string
		want        string
	}{
		{"plain", T("settings are valid"), "settings are valid"},
		{"formatted", T("hostname %q differs from %q", "a", "b"), `hostname "a" differs from "b"`},
		{"singular", TN("%d problem", "%d problems", 1, 1), "1 problem"},
		{"plural", TN("%d problem", "%d problems", 3, 3), "3 problems"},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if test.got != test.want {
				t.Errorf("%q != %q", test.got, test.want)
			}
		})
	}
}
