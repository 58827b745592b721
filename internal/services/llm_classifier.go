// Package services – OllamaClassifier
//
// This file implements the optional LLM fallback behind the
// FallbackClassifier interface. It talks to an Ollama-compatible chat
// endpoint and demands a strict JSON object back; anything that does not
// parse into the expected shape is discarded. The engine treats every
// failure here as "no enrichment", never as a turn failure.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jpereyra/contabot-backend/internal/nlp"
)

// classifierPrompt pins the model to the closed intent set and the exact
// output shape. Unknown fields stay empty strings.
const classifierPrompt = `Sos un clasificador para un asistente contable argentino.
Respondé SOLO un objeto JSON con esta forma exacta:
{"intent":"...","cliente_ref":"...","periodo":"..."}

intent debe ser uno de: situacion_fiscal, vencimientos_proximos,
iva_resumen_periodo, ventas_resumen_periodo, compras_resumen_periodo,
resultado_periodo, documentos, identify, unknown.
cliente_ref es un CUIT o email si aparece en el mensaje, si no "".
periodo es YYYY-MM si el mensaje menciona un período, si no "".
No agregues texto fuera del JSON.`

// OllamaClassifier calls an Ollama /api/chat endpoint with format=json.
type OllamaClassifier struct {
	// BaseURL is the server root, e.g. "http://localhost:11434".
	BaseURL string
	// Model is the model name passed through to the server.
	Model string
	// APIKey, when set, is sent as a bearer token (for hosted gateways).
	APIKey string
	// HTTPClient defaults to http.DefaultClient. Per-call deadlines come
	// from the request context, so the client needs no timeout of its own.
	HTTPClient *http.Client
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// classification is the strict contract the model must honor.
type classification struct {
	Intent     string `json:"intent"`
	ClienteRef string `json:"cliente_ref"`
	Periodo    string `json:"periodo"`
}

// Classify sends the message to the model and maps the strict-JSON answer
// into an Enrichment. Malformed output yields an error; the caller discards
// it.
func (c *OllamaClassifier) Classify(ctx context.Context, message string) (*Enrichment, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model: c.Model,
		Messages: []ollamaMessage{
			{Role: "system", Content: classifierPrompt},
			{Role: "user", Content: message},
		},
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm classifier: unexpected status %d", resp.StatusCode)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llm classifier: decode envelope: %w", err)
	}

	var cls classification
	if err := json.Unmarshal([]byte(out.Message.Content), &cls); err != nil {
		return nil, fmt.Errorf("llm classifier: non-JSON content: %w", err)
	}

	enr := &Enrichment{Intent: nlp.IntentUnknown, CustomerRef: strings.TrimSpace(cls.ClienteRef)}
	if intent, ok := nlp.ParseIntent(strings.TrimSpace(cls.Intent)); ok {
		enr.Intent = intent
	}
	if p, ok := nlp.FindPeriod(cls.Periodo); ok {
		enr.Period = &p
	}
	return enr, nil
}
