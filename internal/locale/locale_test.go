package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name      string
		prefs     []string
		expected  string
		direction string
	}{
		{name: "arabic", prefs: []string{"ar"}, expected: "ar", direction: "rtl"},
		{name: "regional arabic", prefs: []string{"ar-EG"}, expected: "ar", direction: "rtl"},
		{name: "english", prefs: []string{"en"}, expected: "en", direction: "ltr"},
		{name: "accept-language header", prefs: []string{"en-US,en;q=0.9,ar;q=0.8"}, expected: "en", direction: "ltr"},
		{name: "unsupported falls back to arabic", prefs: []string{"fr"}, expected: "ar", direction: "rtl"},
		{name: "no preference", prefs: nil, expected: "ar", direction: "rtl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Negotiate(tt.prefs...)
			assert.Equal(t, tt.expected, l.String())
			assert.Equal(t, tt.expected, l.AcceptLanguage())
			assert.Equal(t, tt.direction, l.Direction())
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, MsgGenericFailure, Negotiate("en").Translate(MsgGenericFailure))
	assert.Equal(t, "تم إرسال رمز التحقق", Negotiate("ar").Translate(MsgCodeSent))
	assert.Equal(t, "unknown key", Negotiate("ar").Translate("unknown key"))
}
