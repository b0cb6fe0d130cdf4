// Package mood turns raw classifier payloads into fixed-schema mood vectors.
//
// Normalize and Summarize are the only code allowed to make assumptions about
// the shape of a classification service response. They never fail: anything
// they cannot read degrades to zero scores and empty extras.
package mood

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/mood-journal/internal/model"
)

// Summary holds the non-score fields of an analysis payload.
type Summary struct {
	Confidence *float64
	Summary    *string
	Keywords   []string
}

// nestedKeys are object keys that may wrap the actual payload or the scores.
var (
	envelopeKeys = []string{"data", "result"}
	scoreKeys    = []string{"mood", "emotions", "scores"}
)

// Normalize reads the six emotion scores from raw.
//
// Each emotion is read from a same-named numeric field (case-insensitive),
// either at the top level or inside a "mood"/"emotions"/"scores" object.
// If any score is above 1 the whole vector is taken to be on a 0-100 scale and
// divided by 100. Every score is then clamped to [0,1].
func Normalize(raw any) model.Mood {
	obj := payload(raw)
	if obj == nil {
		return model.Mood{}
	}
	scores := obj
	for _, k := range scoreKeys {
		if nested, ok := lookup(obj, k).(map[string]any); ok {
			scores = nested
			break
		}
	}

	values := make(map[model.Emotion]float64, len(model.Emotions))
	percentScale := false
	for _, e := range model.Emotions {
		v, ok := number(lookup(scores, string(e)))
		if !ok {
			continue
		}
		values[e] = v
		if v > 1 {
			percentScale = true
		}
	}

	var m model.Mood
	for e, v := range values {
		if percentScale {
			v /= 100
		}
		m.Set(e, clamp(v))
	}
	return m
}

// Summarize reads confidence, summary and keywords from raw.
// Keywords is never nil.
func Summarize(raw any) Summary {
	s := Summary{Keywords: []string{}}
	obj := payload(raw)
	if obj == nil {
		return s
	}

	if v, ok := number(lookup(obj, "confidence")); ok {
		if v > 1 {
			v /= 100
		}
		c := clamp(v)
		s.Confidence = &c
	}

	if str, ok := lookup(obj, "summary").(string); ok {
		if str = strings.TrimSpace(str); str != "" {
			s.Summary = &str
		}
	}

	if list, ok := lookup(obj, "keywords").([]any); ok {
		for _, item := range list {
			kw, isString := item.(string)
			if !isString {
				continue
			}
			if kw = strings.TrimSpace(kw); kw != "" {
				s.Keywords = append(s.Keywords, kw)
			}
		}
	}
	return s
}

// Result combines Normalize and Summarize into an analysis result.
func Result(raw any) model.MoodAnalysisResult {
	s := Summarize(raw)
	return model.MoodAnalysisResult{
		Mood:       Normalize(raw),
		Confidence: s.Confidence,
		Summary:    s.Summary,
		Keywords:   s.Keywords,
	}
}

// payload coerces raw into a generic object. JSON text is decoded and other
// Go values go through their JSON encoding, so typed maps and tagged structs
// read the same as decoded JSON. A {"data": {...}} style envelope is unwrapped
// only when the outer object carries no scores of its own. It returns nil for
// anything that is not an object.
func payload(raw any) map[string]any {
	var obj map[string]any
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		obj = v
	case json.RawMessage:
		obj = decodeObject(v)
	case []byte:
		obj = decodeObject(v)
	case string:
		obj = decodeObject([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		obj = decodeObject(data)
	}
	if obj == nil || hasScores(obj) {
		return obj
	}
	for _, k := range envelopeKeys {
		if inner, ok := lookup(obj, k).(map[string]any); ok {
			return inner
		}
	}
	return obj
}

func hasScores(obj map[string]any) bool {
	for _, e := range model.Emotions {
		if lookup(obj, string(e)) != nil {
			return true
		}
	}
	for _, k := range scoreKeys {
		if _, ok := lookup(obj, k).(map[string]any); ok {
			return true
		}
	}
	return false
}

func decodeObject(data []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	return obj
}

// lookup finds key in obj, preferring an exact match over a case-insensitive one.
func lookup(obj map[string]any, key string) any {
	if v, ok := obj[key]; ok {
		return v
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// number extracts a finite float from the numeric shapes a decoder may produce.
// Strings are accepted when they parse as a number; a trailing "%" means the
// value is a percentage.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		str := strings.TrimSpace(n)
		percent := strings.HasSuffix(str, "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(str, "%")), 64)
		if err != nil {
			return 0, false
		}
		if percent {
			parsed /= 100
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
