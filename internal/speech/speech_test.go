package speech

import (
	"strings"
	"testing"
)

func TestValidateVoice(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		voice   string
		wantErr bool
	}{
		{"default voice on default model", "qwen3-omni-flash", "Cherry", false},
		{"alternate voice", "qwen3-omni-flash", "Ethan", false},
		{"voice missing from smaller model", "qwen2.5-omni-7b", "Cherry", true},
		{"unknown voice", "qwen3-omni-flash", "HAL9000", true},
		{"unknown model falls back to default set", "qwen4-hypothetical", "Cherry", false},
		{"unknown model still rejects bad voice", "qwen4-hypothetical", "HAL9000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVoice(tt.model, tt.voice)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateVoice(%q, %q) accepted an invalid voice", tt.model, tt.voice)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateVoice(%q, %q) = %v", tt.model, tt.voice, err)
			}
		})
	}
}

func TestValidateVoiceErrorListsOptions(t *testing.T) {
	err := ValidateVoice("qwen2.5-omni-7b", "Cherry")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Ethan") {
		t.Errorf("error %q should list the valid options", err)
	}
}
