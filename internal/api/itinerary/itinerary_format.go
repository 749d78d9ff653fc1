package itinerary

import (
	"regexp"
	"strings"
)

var boldSpan = regexp.MustCompile(`\*\*(.*?)\*\*`)

// FormatItinerary converts model output for HTML display: newlines become
// <br> and **bold** spans become <strong>. Unmatched markup is left alone.
func FormatItinerary(text string) string {
	text = strings.ReplaceAll(text, "\n", "<br>")
	return boldSpan.ReplaceAllString(text, "<strong>$1</strong>")
}
