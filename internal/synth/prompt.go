package synth

import (
	"fmt"
	"math"
	"strings"

	"docuquery/internal/model"
)

const (
	ConceptStructured   = "structured"
	ConceptChainThought = "chain-thought"
	ConceptDynamic      = "dynamic"
	ConceptTemperature  = "temperature"

	defaultTemperature = 0.1
	temperatureStep    = 0.05
	temperatureSpread  = 0.3
)

const baseSystemPrompt = `You are a document analysis assistant. Answer questions using ONLY the document context you are given.

Rules:
1. When the context contains the answer, state it directly and point to the parts of the context you used.
2. When the context does not contain enough information, say explicitly: "The document does not provide enough information to answer this question."
3. Never invent facts that are not in the context.
4. When asked for a definition or a specific term, quote the exact definition from the context.
5. Keep technical, legal and medical terms precise and include the qualifying details the context gives.
6. When the context makes several points about the topic, include all of them.`

func hasConcept(concepts []string, name string) bool {
	for _, c := range concepts {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

func buildSystemPrompt(concepts []string, questionIndex, totalQuestions int) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	switch {
	case questionIndex == 0:
		b.WriteString(" Give a comprehensive, detailed answer.")
	case questionIndex == totalQuestions-1:
		b.WriteString(" Keep the answer concise and summarise the key points.")
	default:
		b.WriteString(" Balance detail with clarity.")
	}

	if hasConcept(concepts, ConceptStructured) {
		b.WriteString(" Respond with valid JSON only, no prose around it.")
	}
	if hasConcept(concepts, ConceptChainThought) {
		b.WriteString(" Reason step by step and show that reasoning.")
	}
	if hasConcept(concepts, ConceptDynamic) {
		b.WriteString(" Adapt the style and depth of the answer to the complexity of the question.")
	}
	return b.String()
}

func buildUserPrompt(question string, chunks []model.ScoredChunk, concepts []string) string {
	var b strings.Builder
	b.WriteString("Answer the question below using only the document context provided.\n\n")

	if hasConcept(concepts, ConceptChainThought) {
		b.WriteString("ANALYSIS STEPS:\n")
		b.WriteString("1. Read every context chunk carefully\n")
		b.WriteString("2. Collect everything related to the question\n")
		b.WriteString("3. If the answer is not stated directly, infer it only from related context\n")
		b.WriteString("4. If nothing relevant exists, say so clearly\n\n")
	}

	fmt.Fprintf(&b, "DOCUMENT CONTEXT (%d chunks):\n", len(chunks))
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- CHUNK %d (Relevance: %.1f) ---\n%s", i+1, c.Score, c.Content)
	}
	fmt.Fprintf(&b, "\n\nQUESTION: %s\n\n", question)

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. If the answer is in the context, give it clearly and concisely\n")
	b.WriteString("2. If it is only partially available, give the most relevant details\n")
	b.WriteString("3. If the context does not contain the answer, say \"The document does not provide enough information to answer this question\"\n")
	b.WriteString("4. Include definitions, conditions or limitations when the context has them\n\n")

	if hasConcept(concepts, ConceptStructured) {
		b.WriteString("FORMAT YOUR RESPONSE AS JSON:\n")
		b.WriteString("{\n  \"answer\": \"Your detailed answer here\",\n  \"confidence\": 0.0-1.0,\n  \"sources\": [\"Chunk X\"],\n  \"reasoning\": \"Brief explanation of how you arrived at this answer\"\n}")
	} else {
		b.WriteString("FORMAT YOUR RESPONSE AS:\n")
		b.WriteString("THINKING PROCESS:\n1. [Your analysis steps]\n2. [Your reasoning]\n\n")
		b.WriteString("ANSWER:\n[Your final answer]\n\n")
		b.WriteString("CONFIDENCE: [0.0-1.0]\n")
	}
	return b.String()
}

// temperatureFor returns the sampling temperature for one question of a batch.
func temperatureFor(base *float64, concepts []string, questionIndex int) float64 {
	t := defaultTemperature
	if base != nil {
		t = *base
	}
	if hasConcept(concepts, ConceptTemperature) || hasConcept(concepts, ConceptDynamic) {
		t += math.Mod(float64(questionIndex)*temperatureStep, temperatureSpread)
	}
	return clamp01(t)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
