package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional parameters to embed in the message (for example,
// "min" or "expected").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates refer
// to parameters as {name}; parameters that are not supplied are dropped
// together with their surrounding parenthesis.
type dictTranslator struct{ lang string }

var dict = map[string]map[string]string{
	"en": {
		"invalid_type":   "invalid type (expected {expected})",
		"required":       "value is required",
		"too_short":      "too short (min {min})",
		"too_long":       "too long (max {max})",
		"too_small":      "too small (min {min})",
		"too_big":        "too big (max {max})",
		"pattern":        "does not match pattern {pattern}",
		"invalid_enum":   "value is not one of the allowed values",
		"invalid_format": "invalid format (expected {format})",
		"not_equal":      "value is not equal to the expected value",
		"negated":        "negated predicate succeeded",
		"no_match":       "no alternative matched",
		"parse_error":    "parse error",
		"duplicate_key":  "duplicate key",
	},
	"ja": {
		"invalid_type":   "型が不正です",
		"required":       "必須です",
		"too_short":      "短すぎます",
		"too_long":       "長すぎます",
		"too_small":      "小さすぎます",
		"too_big":        "大きすぎます",
		"pattern":        "パターンに一致しません",
		"invalid_enum":   "許可された値ではありません",
		"invalid_format": "形式が不正です",
		"not_equal":      "期待値と一致しません",
		"negated":        "否定された条件が成立しました",
		"no_match":       "どの条件にも一致しません",
		"parse_error":    "解析エラー",
		"duplicate_key":  "キーが重複しています",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dict[t.lang][code]
	if !ok {
		return code
	}
	return render(tmpl, data)
}

func render(tmpl string, data map[string]string) string {
	out := tmpl
	from := 0
	for {
		rel := strings.IndexByte(out[from:], '{')
		if rel < 0 {
			return out
		}
		start := from + rel
		end := strings.IndexByte(out[start:], '}')
		if end < 0 {
			return out
		}
		key := out[start+1 : start+end]
		if v, ok := data[key]; ok {
			out = out[:start] + v + out[start+end+1:]
			from = start + len(v)
			continue
		}
		from = start
		// drop " (… {key} …)" or the bare placeholder
		open := strings.LastIndex(out[:start], " (")
		closeIdx := strings.IndexByte(out[start:], ')')
		if open >= 0 && closeIdx >= 0 {
			out = out[:open] + out[start+closeIdx+1:]
			from = open
			continue
		}
		out = strings.TrimSpace(out[:start] + out[start+end+1:])
		if from > len(out) {
			from = len(out)
		}
	}
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
