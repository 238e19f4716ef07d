// Package policy decides whether a user query warrants a web lookup before
// answering. The heuristic here is a pure function so turn orchestration
// stays unit-testable; when the model's own tool-call signal is available
// the bot treats that as authoritative and falls back to this policy only
// when the signal is absent or malformed.
package policy

import (
	"strings"
	"unicode"

	"github.com/knowbot-ai/knowbot/internal/session"
)

// smalltalk phrases are answered without a lookup.
var smalltalk = map[string]bool{
	"hello": true, "hi": true, "hey": true, "yo": true,
	"thanks": true, "thank you": true, "how are you": true,
	"good morning": true, "good afternoon": true, "good evening": true,
	"bye": true, "goodbye": true, "ok": true, "okay": true,
}

// lookupCues suggest the answer lives outside the conversation: either an
// interrogative opener or a recency word.
var lookupCues = map[string]bool{
	"who": true, "what": true, "when": true, "where": true, "which": true,
	"whose": true, "current": true, "currently": true, "latest": true,
	"today": true, "now": true, "recent": true, "recently": true,
	"news": true, "price": true, "score": true, "happened": true,
	"update": true,
}

// stopwords are excluded from the derivability check so that pronouns and
// filler don't count as content.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "do": true, "does": true,
	"did": true, "can": true, "could": true, "will": true, "would": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"from": true, "with": true, "about": true, "and": true, "or": true,
	"it": true, "its": true, "he": true, "she": true, "they": true,
	"him": true, "her": true, "his": true, "hers": true, "their": true,
	"them": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "we": true, "me": true, "my": true, "your": true,
}

// ShouldSearch reports whether answering query likely requires a web lookup
// given the recent context turns. It is deterministic: identical inputs
// always produce the identical decision.
//
// A lookup is warranted when the query carries an interrogative/recency cue
// or introduces a named entity the context has not seen, unless every
// content word of the query already appears in the context (the answer is
// then presumed derivable from the conversation itself).
func ShouldSearch(query string, context []session.Turn) bool {
	normalized := strings.ToLower(strings.TrimSpace(query))
	normalized = strings.TrimRight(normalized, "?!. ")
	if normalized == "" {
		return false
	}
	if smalltalk[normalized] {
		return false
	}

	contextText := strings.ToLower(flattenContext(context))
	words := tokenize(normalized)

	cue := false
	for _, w := range words {
		if lookupCues[w] {
			cue = true
			break
		}
	}

	if !cue && !hasUnseenEntity(query, contextText) {
		return false
	}

	// Derivable from context: every content word of the query already
	// appears in the prior turns, e.g. a pronoun-only follow-up whose
	// referent the last assistant turn fully resolved.
	content := contentWords(words)
	if len(content) == 0 {
		return false
	}
	for _, w := range content {
		if !strings.Contains(contextText, w) {
			return true
		}
	}
	return false
}

func flattenContext(turns []session.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// contentWords filters out stopwords and cue words, keeping the terms that
// actually carry the question's subject.
func contentWords(words []string) []string {
	var out []string
	for _, w := range words {
		if len(w) < 3 || stopwords[w] || lookupCues[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// hasUnseenEntity reports whether the original-cased query mentions a
// capitalized token (after the first word, to skip sentence case) that the
// context has never seen.
func hasUnseenEntity(query, contextText string) bool {
	tokens := tokenize(query)
	for i, tok := range tokens {
		if i == 0 || len(tok) < 3 {
			continue
		}
		r := []rune(tok)
		if !unicode.IsUpper(r[0]) {
			continue
		}
		lower := strings.ToLower(tok)
		if stopwords[lower] || lookupCues[lower] {
			continue
		}
		if !strings.Contains(contextText, lower) {
			return true
		}
	}
	return false
}
