// Package extract recovers a structured {function, arguments} command from
// raw LLM completion text.
//
// The model is instructed to answer with a single JSON object, but real
// completions arrive wrapped in prose, markdown fences, or partially
// malformed. Extract runs four strategies ordered strict to lenient so that
// well-formed output is never misparsed by a looser heuristic:
//
//  1. whole-string JSON parse
//  2. fenced ```json code block
//  3. inline single-object scan (no nested braces)
//  4. regex reconstruction of name + arguments
//
// A candidate that fails to parse at any stage falls through to the next
// strategy rather than aborting the extraction.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"taskflow/internal/domain"
)

var (
	// ```json\n{...}\n``` — the tag is optional, the braces must balance
	// lazily so trailing prose after the fence is ignored.
	fencedRe = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

	// A flat object containing the literal "function" key, no nested braces.
	inlineRe = regexp.MustCompile(`\{[^{}]*"function"[^{}]*\}`)

	// Last resort: capture the pieces separately and reassemble.
	funcNameRe = regexp.MustCompile(`"function"\s*:\s*"(\w+)"`)
	argsRe     = regexp.MustCompile(`"arguments"\s*:\s*(\{[^}]*\})`)
)

// Extract returns the command found in raw text, or ok=false when no
// strategy produced a parseable object with a non-empty function name.
// It never panics; any internal failure means "no command found".
func Extract(raw string) (cmd domain.Command, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			cmd, ok = domain.Command{}, false
		}
	}()

	// Strategy 1: the whole response is the JSON object.
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if cmd, ok := parseCandidate(trimmed); ok {
			return cmd, true
		}
	}

	// Strategy 2: the object is inside a fenced code block.
	if m := fencedRe.FindStringSubmatch(raw); m != nil {
		if cmd, ok := parseCandidate(m[1]); ok {
			return cmd, true
		}
	}

	// Strategy 3: a flat object embedded anywhere in surrounding prose.
	if m := inlineRe.FindString(raw); m != "" {
		if cmd, ok := parseCandidate(m); ok {
			return cmd, true
		}
	}

	// Strategy 4: reconstruct from separately captured fragments. Tolerates
	// punctuation and nesting that break the object-shaped scans above.
	if name := funcNameRe.FindStringSubmatch(raw); name != nil {
		args := map[string]any{}
		if frag := argsRe.FindStringSubmatch(raw); frag != nil {
			if err := json.Unmarshal([]byte(frag[1]), &args); err != nil {
				return domain.Command{}, false
			}
		}
		return domain.Command{Function: name[1], Arguments: args}, true
	}

	return domain.Command{}, false
}

// parseCandidate parses one JSON fragment into a Command. The fragment must
// be valid JSON, carry a string "function" key, and its "arguments" (when
// present) must be an object.
func parseCandidate(fragment string) (domain.Command, bool) {
	if !gjson.Valid(fragment) {
		return domain.Command{}, false
	}
	fn := gjson.Get(fragment, "function")
	if fn.Type != gjson.String || fn.String() == "" {
		return domain.Command{}, false
	}

	args := map[string]any{}
	if a := gjson.Get(fragment, "arguments"); a.Exists() {
		if !a.IsObject() {
			return domain.Command{}, false
		}
		if err := json.Unmarshal([]byte(a.Raw), &args); err != nil {
			return domain.Command{}, false
		}
	}
	return domain.Command{Function: fn.String(), Arguments: args}, true
}
