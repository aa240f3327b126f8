package webhook

import (
	"regexp"
	"strings"
)

// シークレットを運んでくるペイロードのキー
var secretKeys = []string{"webhook_secret", "secret"}

const redacted = "[REDACTED]"

var secretPatterns = func() []*regexp.Regexp {
	quoted := make([]string, len(secretKeys))
	for i, k := range secretKeys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	keys := "(?:" + strings.Join(quoted, "|") + ")"

	return []*regexp.Regexp{
		// JSON（rawRequestの中のエスケープされたJSONも含む）
		regexp.MustCompile(`(\\?"` + keys + `\\?"\s*:\s*\\?")(?:[^"\\]|\\[^"])*`),
		// form-urlencoded / query string
		regexp.MustCompile(`((?:^|[&?])` + keys + `=)[^&\s]*`),
		// multipart のパート本文
		regexp.MustCompile(`(name="` + keys + `"[^\r\n]*\r?\n(?:[^\r\n]+\r?\n)*\r?\n)[^\r\n]*`),
	}
}()

// RedactSecrets は監査ログに残す前にシークレットの値を伏せる
func RedactSecrets(body []byte) []byte {
	out := body
	for _, re := range secretPatterns {
		out = re.ReplaceAll(out, []byte("${1}"+redacted))
	}
	return out
}
