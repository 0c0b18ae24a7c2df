package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we support
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

// CLI message keys. English output is the key itself.
const (
	MsgNodes      = "%d nodes decoded"
	MsgNoConfig   = "no configuration loaded"
	MsgValid      = "%s: ok (%d nodes)"
	MsgIdentical  = "trees are identical"
	MsgSoakResult = "%d cycles, %d nodes each, %d contexts left open"
	MsgReloaded   = "reloaded %s (%d nodes)"
	MsgMetadata   = "Metadata: %d options"
)

func init() {
	de := language.German
	_ = message.SetString(de, MsgNodes, "%d Knoten dekodiert")
	_ = message.SetString(de, MsgNoConfig, "keine Konfiguration geladen")
	_ = message.SetString(de, MsgValid, "%s: ok (%d Knoten)")
	_ = message.SetString(de, MsgIdentical, "Bäume sind identisch")
	_ = message.SetString(de, MsgSoakResult, "%d Durchläufe, je %d Knoten, %d Kontexte offen")
	_ = message.SetString(de, MsgReloaded, "%s neu geladen (%d Knoten)")
	_ = message.SetString(de, MsgMetadata, "Metadaten: %d Optionen")
}

// MatchLanguage returns the best matching language for the given tags
func MatchLanguage(acceptLang string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLang)
	tag, _, _ := matcher.Match(tags...)
	return tag
}

// NewPrinter returns a message printer for the given language
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NewCLIPrinter returns a printer for the system's locale (from env vars)
func NewCLIPrinter() *message.Printer {
	return message.NewPrinter(localeTag(os.Getenv("LC_ALL"), os.Getenv("LANG")))
}

func localeTag(lcAll, lang string) language.Tag {
	if lcAll != "" {
		lang = lcAll
	}
	if lang == "" || lang == "C" || lang == "POSIX" {
		return DefaultLang
	}

	// Strip encoding (e.g. .UTF-8) if present
	if i := strings.Index(lang, "."); i != -1 {
		lang = lang[:i]
	}
	lang = strings.ReplaceAll(lang, "_", "-")

	tag, err := language.Parse(lang)
	if err != nil {
		return MatchLanguage(lang)
	}
	// Map "de-DE" onto the supported "de"
	tag, _, _ = matcher.Match(tag)
	return tag
}
