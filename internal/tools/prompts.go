package tools

import (
	"fmt"
	"strings"

	"github.com/dataforge-ai/dataforge/internal/openai"
)

// Kind selects a tool operation.
type Kind string

const (
	KindSynthetic Kind = "synthetic"
	KindMask      Kind = "mask"
	KindParse     Kind = "parse"
	KindExtract   Kind = "extract"
	KindQuery     Kind = "query"
)

// Request carries the parameters of an AI-backed tool invocation.
type Request struct {
	Kind         Kind   `json:"kind"`
	Instructions string `json:"instructions"`
	Input        string `json:"input"`
	Count        int    `json:"count"`
}

const (
	defaultRowCount = 10
	maxRowCount     = 100
)

// BuildMessages validates the request and produces the chat messages for the
// completion call. Row counts are clamped to [1, 100] with 10 as default.
func BuildMessages(req Request) ([]openai.ChatMessage, error) {
	switch req.Kind {
	case KindSynthetic:
		if strings.TrimSpace(req.Instructions) == "" {
			return nil, fmt.Errorf("synthetic generation requires a schema description")
		}
		count := req.Count
		if count <= 0 {
			count = defaultRowCount
		}
		if count > maxRowCount {
			count = maxRowCount
		}
		return []openai.ChatMessage{
			{Role: "system", Content: "You generate synthetic tabular data. " +
				"Respond with a JSON array of objects only, no prose."},
			{Role: "user", Content: fmt.Sprintf(
				"Generate %d rows of realistic synthetic data matching this description:\n%s",
				count, req.Instructions)},
		}, nil

	case KindMask:
		if strings.TrimSpace(req.Input) == "" {
			return nil, fmt.Errorf("PII masking requires input data")
		}
		return []openai.ChatMessage{
			{Role: "system", Content: "You mask personally identifiable information. " +
				"Replace names, emails, phone numbers, addresses, and identifiers with " +
				"placeholder tokens. Preserve the input structure exactly."},
			{Role: "user", Content: req.Input},
		}, nil

	case KindParse:
		if strings.TrimSpace(req.Input) == "" {
			return nil, fmt.Errorf("parsing requires input data")
		}
		return []openai.ChatMessage{
			{Role: "system", Content: "You parse unstructured text into structured records. " +
				"Respond with a JSON array of objects only, no prose."},
			{Role: "user", Content: req.Input},
		}, nil

	case KindExtract:
		if strings.TrimSpace(req.Input) == "" {
			return nil, fmt.Errorf("extraction requires input data")
		}
		instructions := req.Instructions
		if strings.TrimSpace(instructions) == "" {
			instructions = "Extract all named entities and key facts."
		}
		return []openai.ChatMessage{
			{Role: "system", Content: "You extract structured information from documents. " +
				"Respond with a JSON object only, no prose."},
			{Role: "user", Content: instructions + "\n\nDocument:\n" + req.Input},
		}, nil

	case KindQuery:
		if strings.TrimSpace(req.Instructions) == "" {
			return nil, fmt.Errorf("query generation requires a natural-language question")
		}
		content := "Question: " + req.Instructions
		if strings.TrimSpace(req.Input) != "" {
			content += "\n\nSchema:\n" + req.Input
		}
		return []openai.ChatMessage{
			{Role: "system", Content: "You translate natural-language questions into SQL. " +
				"Respond with a single SQL statement only, no prose, no code fences."},
			{Role: "user", Content: content},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool kind %q", req.Kind)
	}
}
