package synth

import (
	"fmt"
	"math"
	"strings"

	"docuquery/internal/model"
)

const (
	mockSourceLimit    = 3
	mockSnippetLength  = 200
	noContextMockScore = 0.2
)

func (s *Synthesizer) mockAnswer(question string, chunks []model.ScoredChunk, questionIndex int) model.Answer {
	hasContext := len(chunks) > 0
	subject := strings.Replace(strings.ToLower(question), "?", "", 1)

	var templates []string
	if hasContext {
		templates = []string{
			fmt.Sprintf("Based on the document, %s is addressed in the provided context.", subject),
			fmt.Sprintf("The document mentions that %s is an important consideration.", subject),
			fmt.Sprintf("Analysis of the content suggests that %s is a key topic covered.", subject),
			fmt.Sprintf("The document provides insights into %s across multiple sections.", subject),
		}
	} else {
		templates = []string{
			fmt.Sprintf("I don't have enough context to answer %q accurately.", question),
			fmt.Sprintf("I couldn't find any information about %q in the document.", question),
			fmt.Sprintf("The document doesn't contain any information related to %q.", question),
			fmt.Sprintf("I'm unable to answer %q as I don't have access to the relevant document content.", question),
		}
	}
	idx := questionIndex % len(templates)
	if idx < 0 {
		idx += len(templates)
	}

	out := model.Answer{
		Answer:     templates[idx],
		Confidence: noContextMockScore,
		Sources:    []model.Source{},
		Metadata: model.AnswerMetadata{
			IsMock:  true,
			Success: false,
			Chunks:  len(chunks),
		},
	}
	if !hasContext {
		out.Metadata.Warning = "No relevant context available"
		return out
	}

	out.Confidence = math.Round((0.6+s.random()*0.4)*100) / 100
	for i, c := range chunks {
		if i == mockSourceLimit {
			break
		}
		out.Sources = append(out.Sources, model.Source{
			Title:   fmt.Sprintf("Document Section %d", i+1),
			Content: truncate(c.Content, mockSnippetLength),
			Page:    1 + int(s.random()*10),
		})
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
