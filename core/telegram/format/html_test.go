package format

import "testing"

func TestEscape(t *testing.T) {
	if got := Escape(`a<b>&"П'ятниця"`); got != `a&lt;b&gt;&amp;"П'ятниця"` {
		t.Fatalf("Escape = %q", got)
	}
	if got := Bold("x<y"); got != "<b>x&lt;y</b>" {
		t.Fatalf("Bold = %q", got)
	}
	if got := Code("08:00"); got != "<code>08:00</code>" {
		t.Fatalf("Code = %q", got)
	}
}
