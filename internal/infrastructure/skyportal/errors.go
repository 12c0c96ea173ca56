package skyportal

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageLen = 256

// errorMessage extracts a human-readable message from an error body. The platform
// answers with a JSON envelope, but proxies in front of it reply with HTML pages.
func errorMessage(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	if strings.Contains(contentType, "json") || trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Message != "" {
			return truncate(env.Message)
		}
	}

	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if msg := htmlMessage(trimmed); msg != "" {
			return truncate(msg)
		}
	}

	return truncate(string(trimmed))
}

func htmlMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if heading := strings.TrimSpace(doc.Find("h1").First().Text()); heading != "" {
		return heading
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// truncate keeps at most maxMessageLen runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxMessageLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxMessageLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
