package nlu

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024
	maxRecords    = 100
	maxTupleLen   = 4 * 1024
	maxMetaLen    = 2 * 1024
	maxErrSnippet = 200
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	inner := s[1 : len(s)-1]
	// at most 5 segments so metadata may contain delimiters
	parts := strings.SplitN(inner, tupDelim, 5)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	return &rawTuple{Type: strings.ToLower(strings.TrimSpace(parts[0])), Parts: parts}, nil
}

func parseConfidence(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

func parseMeta(s string) (map[string]any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}, nil
	}
	if len(s) > maxMetaLen {
		return nil, fmt.Errorf("metadata too large")
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, fmt.Errorf("metadata not json object")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseNLUResponse parses the tuple format emitted by the NLU model. Bad
// records are skipped and listed under ParsingMetadata["parsing_errors"].
func ParseNLUResponse(content string) (resp *model.NLUResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "nlu_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("nlu parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	truncated := false
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "nlu_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
		truncated = true
	}
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	resp = &model.NLUResponse{
		Intents:         []model.Intent{},
		Entities:        []model.Entity{},
		ParsingMetadata: map[string]any{},
		Timestamp:       time.Now().UTC(),
	}

	addErr := func(msg string) {
		v, _ := resp.ParsingMetadata["parsing_errors"].([]string)
		resp.ParsingMetadata["parsing_errors"] = append(v, msg)
	}
	if truncated {
		resp.ParsingMetadata["truncated"] = true
	}

	processed := 0
	for _, rec := range strings.Split(content, recDelim) {
		if processed >= maxRecords {
			resp.ParsingMetadata["records_capped"] = true
			break
		}
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}

		switch rt.Type {
		case "intent":
			if len(rt.Parts) < 3 {
				addErr("intent: insufficient parts")
				continue
			}
			name := strings.TrimSpace(rt.Parts[1])
			if name == "" || !utf8.ValidString(name) {
				addErr("intent: invalid name")
				continue
			}
			conf, err := parseConfidence(rt.Parts[2], "intent.confidence")
			if err != nil {
				addErr("intent: invalid confidence")
				continue
			}
			meta := map[string]any{}
			if len(rt.Parts) >= 4 {
				if m, err := parseMeta(rt.Parts[len(rt.Parts)-1]); err == nil {
					meta = m
				}
			}
			resp.Intents = append(resp.Intents, model.Intent{Name: name, Confidence: conf, Metadata: meta})

		case "entity":
			if len(rt.Parts) < 4 {
				addErr("entity: insufficient parts")
				continue
			}
			etype := strings.ToLower(strings.TrimSpace(rt.Parts[1]))
			val := strings.TrimSpace(rt.Parts[2])
			if etype == "" || !utf8.ValidString(etype) {
				addErr("entity: invalid type")
				continue
			}
			if val == "" || !utf8.ValidString(val) {
				addErr("entity: invalid value")
				continue
			}
			conf, err := parseConfidence(rt.Parts[3], "entity.confidence")
			if err != nil {
				addErr("entity: invalid confidence")
				continue
			}
			e := model.Entity{Type: etype, Value: val, Confidence: conf, Metadata: map[string]any{}}
			if len(rt.Parts) >= 5 {
				if m, err := parseMeta(rt.Parts[4]); err == nil {
					e.Metadata = m
					e.Position = normalizeEntityPosition(m)
				} else {
					addErr("entity: invalid metadata json")
				}
			}
			resp.Entities = append(resp.Entities, e)

		default:
			addErr("unknown tuple type")
		}
	}

	bestConf := -1.0
	for _, it := range resp.Intents {
		if it.Confidence > bestConf {
			bestConf = it.Confidence
			resp.PrimaryIntent = it.Name
		}
	}
	return resp, nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}

func normalizeEntityPosition(meta map[string]any) []int {
	arr, ok := meta["entity_position"].([]any)
	if !ok || len(arr) != 2 {
		return nil
	}
	a, aok := arr[0].(float64)
	b, bok := arr[1].(float64)
	if !aok || !bok {
		return nil
	}
	start, end := int(a), int(b)
	if start < 0 || end < 0 || start > end {
		return nil
	}
	return []int{start, end}
}
