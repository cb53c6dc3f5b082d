package synth

import (
	"encoding/json"
	"regexp"
	"strings"

	"docuquery/internal/model"
)

const (
	noInfoConfidence  = 0.1
	defaultConfidence = 0.8
)

var (
	answerPrefix = regexp.MustCompile(`(?i)^(Answer:|Response:|Based on the context:?)`)
	codeFence    = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

	noInfoPhrases = []string{
		"not enough information",
		"no information",
		"does not provide",
		"not mentioned",
		"not found in the document",
		"not specified in the document",
	}
)

type processed struct {
	answer     string
	confidence float64
	sources    []model.Source
	reasoning  string
}

type structuredReply struct {
	Answer     string          `json:"answer"`
	Confidence *float64        `json:"confidence"`
	Sources    json.RawMessage `json:"sources"`
	Reasoning  string          `json:"reasoning"`
}

func postProcess(raw string, concepts []string) processed {
	clean := strings.TrimSpace(answerPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
	noInfo := isNoInfo(clean)
	confidence := defaultConfidence
	if noInfo {
		confidence = noInfoConfidence
	}

	if !hasConcept(concepts, ConceptStructured) {
		return processed{answer: clean, confidence: confidence, sources: []model.Source{}}
	}

	if reply, ok := parseStructured(clean); ok {
		out := processed{
			answer:     reply.Answer,
			confidence: confidence,
			sources:    parseSources(reply.Sources),
			reasoning:  reply.Reasoning,
		}
		if reply.Confidence != nil {
			out.confidence = clamp01(*reply.Confidence)
		}
		return out
	}

	reasoning := "Extracted from document context"
	if noInfo {
		reasoning = "No relevant information found in the document"
	}
	return processed{answer: clean, confidence: confidence, sources: []model.Source{}, reasoning: reasoning}
}

func isNoInfo(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range noInfoPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func parseStructured(text string) (structuredReply, bool) {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	var reply structuredReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return structuredReply{}, false
	}
	if strings.TrimSpace(reply.Answer) == "" {
		return structuredReply{}, false
	}
	return reply, true
}

// parseSources accepts either ["Chunk 1", ...] or [{"title": ...}, ...].
func parseSources(raw json.RawMessage) []model.Source {
	out := []model.Source{}
	if len(raw) == 0 {
		return out
	}
	var titles []string
	if err := json.Unmarshal(raw, &titles); err == nil {
		for _, t := range titles {
			out = append(out, model.Source{Title: t})
		}
		return out
	}
	var sources []model.Source
	if err := json.Unmarshal(raw, &sources); err == nil {
		return append(out, sources...)
	}
	return out
}
