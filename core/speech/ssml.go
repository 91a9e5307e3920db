package speech

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// defaultLocale is used for xml:lang when the voice name carries no locale.
const defaultLocale = "en-US"

// VoiceLocale extracts the locale prefix of an Azure voice short name,
// e.g. "de-DE" from "de-DE-KatjaNeural".
func VoiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return defaultLocale
	}
	return parts[0] + "-" + parts[1]
}

// BuildSSML wraps text in an SSML document spoken by voice.
func BuildSSML(text, voice string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="`)
	if err := xml.EscapeText(&buf, []byte(VoiceLocale(voice))); err != nil {
		return nil, err
	}
	buf.WriteString(`"><voice name="`)
	if err := xml.EscapeText(&buf, []byte(voice)); err != nil {
		return nil, err
	}
	buf.WriteString(`">`)
	if err := xml.EscapeText(&buf, []byte(text)); err != nil {
		return nil, err
	}
	buf.WriteString(`</voice></speak>`)
	return buf.Bytes(), nil
}
