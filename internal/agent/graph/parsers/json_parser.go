package parsers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	errx "github.com/ai-tutor-orchestrator/server/internal/core/error"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

var (
	ErrEmptyContent = errors.New("empty model output")
	ErrNotObject    = errors.New("model output is not a JSON object")
	ErrEmptyObject  = errors.New("model output is an empty JSON object")
	ErrTooLarge     = errors.New("model output too large")
)

// StripCodeFence removes a surrounding Markdown code fence (```json or ```),
// leaving any other text untouched.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string ("json", "JSON", ...) on the opening line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if info := strings.TrimSpace(s[:nl]); !strings.ContainsAny(info, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseJSONObject strictly parses model output into a non-empty JSON object.
// Only fence stripping is applied; no further text surgery is attempted.
func ParseJSONObject(content string) (obj map[string]any, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "json_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("json parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			obj = nil
		}
	}()

	if len(content) > maxContentLen {
		return nil, ErrTooLarge
	}

	body := StripCodeFence(content)
	if body == "" {
		return nil, ErrEmptyContent
	}
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, safeSnippet(body))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode %s: %w", safeSnippet(body), err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrNotObject)
	}
	if obj == nil {
		return nil, ErrNotObject
	}
	if len(obj) == 0 {
		return nil, ErrEmptyObject
	}
	return obj, nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
