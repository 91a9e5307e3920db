package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceLocale(t *testing.T) {
	tests := []struct {
		voice string
		want  string
	}{
		{"en-US-JennyNeural", "en-US"},
		{"zh-CN-XiaoxiaoNeural", "zh-CN"},
		{"en-US-Jenny-Multilingual", "en-US"},
		{"Jenny", "en-US"},
		{"", "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.voice, func(t *testing.T) {
			assert.Equal(t, tt.want, VoiceLocale(tt.voice))
		})
	}
}

func TestBuildSSML(t *testing.T) {
	got, err := BuildSSML(`say "hi"`, "fr-FR-DeniseNeural")
	require.NoError(t, err)
	assert.Equal(t,
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="fr-FR"><voice name="fr-FR-DeniseNeural">say &#34;hi&#34;</voice></speak>`,
		string(got))
}
