package play

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		text string
	}{
		{"", KindNone, ""},
		{"   \t", KindNone, ""},
		{"a yellow sun over blue sky", KindPrompt, "a yellow sun over blue sky"},
		{"  padded prompt  ", KindPrompt, "padded prompt"},
		{":start", KindStart, ""},
		{":AGAIN", KindStart, ""},
		{":new", KindStart, ""},
		{":retry", KindRetry, ""},
		{":r", KindRetry, ""},
		{":help", KindHelp, ""},
		{":q", KindQuit, ""},
		{":quit now", KindQuit, ""},
		{":dance", KindUnknown, ":dance"},
	}
	for _, tc := range cases {
		got := Parse(tc.in)
		if got.Kind != tc.kind || got.Text != tc.text {
			t.Fatalf("Parse(%q) = %+v, want kind %d text %q", tc.in, got, tc.kind, tc.text)
		}
	}
}
