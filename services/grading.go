package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Grade struct {
	Mark       int
	Suggestion string
	Reason     string
}

type GradingResult struct {
	Grades     []Grade
	Suggestion string
}

// Score is the rounded mean of all marks.
func (r *GradingResult) Score() int {
	if len(r.Grades) == 0 {
		return 0
	}
	sum := 0
	for _, g := range r.Grades {
		sum += g.Mark
	}
	return int(math.Round(float64(sum) / float64(len(r.Grades))))
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// decodeFirstJSON strips markdown fences and decodes the first JSON value in
// the reply. Brackets that belong to the surrounding prose are skipped.
func decodeFirstJSON[T any](raw string) (T, error) {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	var zero T
	err := errors.New("no JSON value in reply")
	for i := strings.IndexAny(s, "[{"); i >= 0; {
		var v T
		if err = json.NewDecoder(strings.NewReader(s[i:])).Decode(&v); err == nil {
			return v, nil
		}
		next := strings.IndexAny(s[i+1:], "[{")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return zero, err
}

var listKeys = []string{"results", "answers", "evaluations", "grades", "feedback"}
var overallKeys = []string{"suggestion", "overall_suggestion", "overallSuggestion", "overall"}

// ParseGrading reads the model's grading reply for n answers. It accepts a bare
// array or an object wrapping the array, optionally inside a fenced block.
func ParseGrading(raw string, n int) (*GradingResult, error) {
	doc, err := decodeFirstJSON[interface{}](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	result := &GradingResult{}
	var items []interface{}

	switch v := doc.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		for _, key := range listKeys {
			if list, ok := v[key].([]interface{}); ok {
				items = list
				break
			}
		}
		result.Suggestion = firstString(v, overallKeys...)
	}

	if len(items) < n {
		return nil, fmt.Errorf("%w: expected %d results, got %d", ErrMalformedReply, n, len(items))
	}

	for _, item := range items[:n] {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: result is not an object", ErrMalformedReply)
		}
		mark, ok := numberField(obj, "mark", "score", "grade")
		if !ok {
			return nil, fmt.Errorf("%w: result without a mark", ErrMalformedReply)
		}
		result.Grades = append(result.Grades, Grade{
			Mark:       clampMark(mark),
			Suggestion: firstString(obj, "suggestion", "correction", "improved"),
			Reason:     firstString(obj, "reason", "explanation", "comment"),
		})
	}
	return result, nil
}

type EssayGrade struct {
	Score       int
	Feedback    string
	Corrections string
}

func ParseEssayGrading(raw string) (*EssayGrade, error) {
	obj, err := decodeFirstJSON[map[string]interface{}](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	score, ok := numberField(obj, "score", "mark")
	if !ok {
		return nil, fmt.Errorf("%w: essay grade without a score", ErrMalformedReply)
	}
	corrections := firstString(obj, "corrections", "correction")
	if corrections == "" {
		if list, ok := obj["corrections"].([]interface{}); ok {
			var lines []string
			for _, l := range list {
				if s, ok := l.(string); ok {
					lines = append(lines, s)
				}
			}
			corrections = strings.Join(lines, "\n")
		}
	}
	return &EssayGrade{
		Score:       clampMark(score),
		Feedback:    firstString(obj, "feedback", "comment"),
		Corrections: corrections,
	}, nil
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// numberField accepts JSON numbers as well as numeric strings like "85" or "85/100".
func numberField(obj map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return v, true
		case string:
			s := strings.TrimSpace(v)
			if i := strings.IndexByte(s, '/'); i > 0 {
				s = strings.TrimSpace(s[:i])
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func clampMark(f float64) int {
	m := int(math.Round(f))
	if m < 0 {
		return 0
	}
	if m > 100 {
		return 100
	}
	return m
}
