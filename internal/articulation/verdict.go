// Package articulation turns free-form model output into structured verdicts.
//
// A response is accepted in three shapes, tried in order:
//
//  1. a bare JSON object,
//  2. a JSON object inside a ``` or ```json fence,
//  3. a JSON object embedded anywhere in the text.
//
// In shapes 2 and 3 the first object carrying a "decision" field is
// preferred over other objects, so example snippets around the verdict are
// skipped. Anything else is rejected with ErrMalformedResponse.
package articulation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"aipm/internal/logging"
)

// NoJustification is used when the response carries no usable justification.
const NoJustification = "No justification provided"

// ErrMalformedResponse is returned when no verdict object can be recovered.
var ErrMalformedResponse = errors.New("malformed response")

// ParseMethod records which stage produced a verdict.
type ParseMethod string

const (
	MethodJSON      ParseMethod = "json"
	MethodFenced    ParseMethod = "json_fenced"
	MethodExtracted ParseMethod = "json_extracted"
)

// Verdict is the structured reading of one response.
type Verdict struct {
	Decision      bool
	Justification string
	Method        ParseMethod
}

// fencePattern matches a complete fence pair, optionally tagged json.
var fencePattern = regexp.MustCompile("(?s)```[ \\t]*(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// InterpreterStats tracks parsing outcomes for monitoring.
type InterpreterStats struct {
	TotalProcessed  int64
	DirectParses    int64
	FencedParses    int64
	ExtractedParses int64
	ParseFailures   int64
}

// Interpreter parses responses and keeps running statistics.
// It is safe for concurrent use.
type Interpreter struct {
	total     atomic.Int64
	direct    atomic.Int64
	fenced    atomic.Int64
	extracted atomic.Int64
	failures  atomic.Int64
}

// NewInterpreter creates an Interpreter with zeroed statistics.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ParseVerdict parses raw with a throwaway Interpreter.
func ParseVerdict(raw string) (Verdict, error) {
	return NewInterpreter().Parse(raw)
}

// Parse extracts a Verdict from raw. The returned error wraps
// ErrMalformedResponse.
func (in *Interpreter) Parse(raw string) (Verdict, error) {
	in.total.Add(1)

	text := strings.TrimSpace(raw)
	method := MethodJSON
	fields, err := decodeObject(text)
	if err != nil {
		var ok bool
		if fields, ok = pickVerdictObject(fenceBodies(text)); ok {
			method = MethodFenced
		} else if fields, ok = pickVerdictObject(findJSONCandidates(text)); ok {
			method = MethodExtracted
		} else {
			in.failures.Add(1)
			logging.ArticulationWarn("no verdict object in response (len=%d): %v", len(raw), err)
			return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	switch method {
	case MethodJSON:
		in.direct.Add(1)
	case MethodFenced:
		in.fenced.Add(1)
	case MethodExtracted:
		in.extracted.Add(1)
	}

	v := Verdict{
		Decision:      coerceDecision(fields["decision"]),
		Justification: coerceJustification(fields["justification"]),
		Method:        method,
	}
	logging.ArticulationDebug("parsed verdict via %s: decision=%t", method, v.Decision)
	return v, nil
}

// fenceBodies returns the trimmed body of every complete fence in text.
func fenceBodies(text string) []string {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	bodies := make([]string, 0, len(matches))
	for _, m := range matches {
		bodies = append(bodies, strings.TrimSpace(m[1]))
	}
	return bodies
}

// pickVerdictObject decodes candidates in order and returns the first one
// with a decision field, or else the first one that decodes at all.
func pickVerdictObject(candidates []string) (map[string]json.RawMessage, bool) {
	var fallback map[string]json.RawMessage
	for _, c := range candidates {
		fields, err := decodeObject(c)
		if err != nil {
			continue
		}
		if _, ok := fields["decision"]; ok {
			return fields, true
		}
		if fallback == nil {
			fallback = fields
		}
	}
	return fallback, fallback != nil
}

// Stats returns a snapshot of the parsing statistics.
func (in *Interpreter) Stats() InterpreterStats {
	return InterpreterStats{
		TotalProcessed:  in.total.Load(),
		DirectParses:    in.direct.Load(),
		FencedParses:    in.fenced.Load(),
		ExtractedParses: in.extracted.Load(),
		ParseFailures:   in.failures.Load(),
	}
}

// decodeObject decodes s as exactly one JSON object.
func decodeObject(s string) (map[string]json.RawMessage, error) {
	if s == "" {
		return nil, errors.New("empty response")
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("response is not a JSON object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	return fields, nil
}

func coerceDecision(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}

	switch d := v.(type) {
	case bool:
		return d
	case json.Number:
		f, err := strconv.ParseFloat(d.String(), 64)
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "true", "yes", "y", "pass", "passed", "1":
			return true
		}
		return false
	case []any:
		return len(d) > 0
	case map[string]any:
		return len(d) > 0
	default:
		return false
	}
}

func coerceJustification(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NoJustification
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return NoJustification
		}
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
