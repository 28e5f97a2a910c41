// Package locale negotiates the storefront UI locale (English or Arabic)
// and provides the localized notices shown during authentication.
package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Notice keys. The English text doubles as the catalog key.
const (
	MsgGenericFailure      = "Something went wrong, please try again"
	MsgVerificationTimeout = "Verification timed out, please request a new code"
	MsgLoginSuccess        = "Logged in successfully"
	MsgCodeSent            = "Verification code sent"
	MsgLoggedOut           = "Logged out"
)

var supported = []language.Tag{
	language.Arabic,
	language.English,
}

var matcher = language.NewMatcher(supported)

func init() {
	arabic := map[string]string{
		MsgGenericFailure:      "حدث خطأ ما، يرجى المحاولة مرة أخرى",
		MsgVerificationTimeout: "انتهت مهلة التحقق، يرجى طلب رمز جديد",
		MsgLoginSuccess:        "تم تسجيل الدخول بنجاح",
		MsgCodeSent:            "تم إرسال رمز التحقق",
		MsgLoggedOut:           "تم تسجيل الخروج",
	}
	for key, msg := range arabic {
		_ = message.SetString(language.Arabic, key, msg)
	}
}

// Locale is one of the supported UI locales
type Locale struct {
	tag language.Tag
}

// Default is the storefront's primary locale
var Default = Locale{tag: language.Arabic}

// Negotiate picks the best supported locale for the given preferences.
// Preferences may be plain tags ("en-US") or Accept-Language values.
func Negotiate(prefs ...string) Locale {
	_, idx := language.MatchStrings(matcher, prefs...)
	return Locale{tag: supported[idx]}
}

// String returns the base language code, e.g. "ar"
func (l Locale) String() string {
	base, _ := l.tag.Base()
	return base.String()
}

// AcceptLanguage returns the value sent in the Accept-Language header
func (l Locale) AcceptLanguage() string {
	return l.String()
}

// RTL reports whether the locale is written right to left
func (l Locale) RTL() bool {
	return l.tag == language.Arabic
}

// Direction returns "rtl" or "ltr"
func (l Locale) Direction() string {
	if l.RTL() {
		return "rtl"
	}
	return "ltr"
}

// Translate returns the localized text for a notice key
func (l Locale) Translate(key string) string {
	return message.NewPrinter(l.tag).Sprintf(key)
}
