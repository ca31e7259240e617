package agent

import "testing"

func TestEnvelope_Text(t *testing.T) {
	env := Envelope{RunID: "abc", Code: "print(1)\n\n"}
	want := "print(1)\n# runid:abc\n"
	if got := env.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestRunIDOf(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"x = 1\n# runid:r-1\n", "r-1"},
		{"x = 1\n# runid: spaced \n", "spaced"},
		{"x = 1\n", ""},
	}
	for _, tt := range tests {
		if got := RunIDOf(tt.text); got != tt.want {
			t.Errorf("RunIDOf(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestNewRunID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}
