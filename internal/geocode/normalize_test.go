package geocode

import "testing"

func TestNormalize(t *testing.T) {
	const qualifier = "Toronto, ON, Canada"

	cases := []struct {
		in   string
		want string
	}{
		{"  100 Queen St W  ", "100 queen street west, toronto, on, canada"},
		{"100 queen street west, Toronto", "100 queen street west, toronto"},
		{"25 Spadina Ave, Toronto ON", "25 spadina avenue, toronto on"},
		{"1 Yonge Blvd.", "1 yonge boulevard, toronto, on, canada"},
		{"", ""},
		{"   ", ""},
	}

	for _, c := range cases {
		if got := Normalize(c.in, qualifier); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIsIdempotentKeyMaker(t *testing.T) {
	const qualifier = "Toronto, ON, Canada"
	a := Normalize("100 Queen St W", qualifier)
	b := Normalize(" 100  queen   STREET  West ", qualifier)
	if a != b {
		t.Fatalf("equivalent addresses produced different keys: %q vs %q", a, b)
	}
}
