package rendition

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		input  string
		want   Kind
		wantOK bool
	}{
		{"AUDIO", Audio, true},
		{"audio", Audio, true},
		{"Subtitles", Subtitles, true},
		{"SUBTITLES", Subtitles, true},
		{"CLOSED-CAPTIONS", 0, false},
		{"VIDEO", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseKind(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if Audio.String() != "audio" {
		t.Errorf("Audio.String() = %q", Audio.String())
	}
	if Subtitles.String() != "subtitles" {
		t.Errorf("Subtitles.String() = %q", Subtitles.String())
	}
	if Kind(0).String() != "unknown" {
		t.Errorf("Kind(0).String() = %q", Kind(0).String())
	}
}
