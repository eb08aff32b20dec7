package companion

import (
	"strings"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "short message",
			input: "Ciao!",
			want:  "Ciao!",
		},
		{
			name:  "surrounding whitespace",
			input: "  Ciao!\n",
			want:  "Ciao!",
		},
		{
			name:  "exactly fifty characters",
			input: strings.Repeat("a", 50),
			want:  strings.Repeat("a", 50),
		},
		{
			name:  "fifty one characters",
			input: strings.Repeat("a", 51),
			want:  strings.Repeat("a", 47) + "...",
		},
		{
			name:  "multibyte characters count as one",
			input: strings.Repeat("è", 60),
			want:  strings.Repeat("è", 47) + "...",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTitle(tt.input)
			if got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
			if n := len([]rune(got)); n > MaxTitleLength {
				t.Errorf("ExtractTitle() length = %d, want <= %d", n, MaxTitleLength)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "user", want: RoleUser},
		{input: "assistant", want: RoleAssistant},
		{input: "system", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseRole() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseRole() = %v, want %v", got, tt.want)
			}
		})
	}
}
