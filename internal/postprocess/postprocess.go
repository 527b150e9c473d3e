// Package postprocess removes common LLM artifacts from model responses.
//
// StripReasoning runs before a structured response is parsed, so braces
// inside a reasoning block never reach the JSON locator. Clean additionally
// drops echoed lead-ins and outer quotes; it is used on free text shown to a
// user.
package postprocess

import (
	"fmt"
	"regexp"
	"strings"
)

// reasoningTags are the block names chat models use for hidden reasoning.
var reasoningTags = []string{"thinking", "think", "reasoning", "reflection"}

var (
	reasoningBlockRe = regexp.MustCompile(`(?is)` + eachTag(`<%[1]s>.*?</%[1]s>`))
	// An opened tag with no closing tag means the model was cut off.
	openReasoningRe = regexp.MustCompile(`(?is)(?:` + eachTag(`<%[1]s>`) + `).*$`)
)

func eachTag(format string) string {
	alts := make([]string, len(reasoningTags))
	for i, tag := range reasoningTags {
		alts[i] = fmt.Sprintf(format, tag)
	}
	return strings.Join(alts, "|")
}

// StripReasoning removes reasoning blocks, complete or truncated.
func StripReasoning(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Clean strips reasoning, a leading "Here is the translation:" style echo and
// a pair of outer quotes, in that order.
func Clean(text string) string {
	text = StripReasoning(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

const qualifier = `(?:(?:final|corrected|refined|polished|translated)\s+)?`

// leadInRe matches a lead-in sentence ending in a colon. A bare noun is only
// accepted for "translation"; "answer" and "annotation" need the "here is"
// form so that genuine text starting with those words survives.
var leadInRe = regexp.MustCompile(`(?i)^(?:` +
	`(?:(?:certainly|sure|of course)[,.]?\s+)?here(?:'s|\s+is)\s+(?:(?:the|my)\s+)?` + qualifier +
	`(?:translation|translated text|text|answer|annotation)` +
	`|(?:the\s+)?` + qualifier + `(?:translation|translated text)` +
	`)\s*:`)

func removeInstructionEchoes(text string) string {
	if loc := leadInRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// closingQuote maps each opening quote to its closing partner.
var closingQuote = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'«':  '»',
	'“':  '”',
	'‘':  '’',
	'„':  '“',
}

// removeQuoteWrapping drops one pair of quotes enclosing the whole text.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	if len(runes) < 2 {
		return text
	}
	if closing, ok := closingQuote[runes[0]]; ok && runes[len(runes)-1] == closing {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return text
}
