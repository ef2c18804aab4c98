// Package factcheck implements C11: the independent on-premise verifier.
// Grounded on original_source's core/local_verifier.py (Ollama /api/generate
// call, pass/fail markers, fail-open policy) and adapted to the teacher's
// net/http client-with-health-probe idiom used elsewhere in the pack for
// sidecar services.
package factcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const verificationPromptTemplate = `You are a fact-checker. Verify if the ANSWER is fully supported by the CONTEXT.

CONTEXT:
%s

ANSWER:
%s

TASK:
- Check each statement in the ANSWER
- Verify it's supported by the CONTEXT
- If ALL statements are supported, respond: "✓ All statements supported"
- If ANY statement is unsupported, list them as: "- Unsupported: [quote the claim]"

YOUR VERIFICATION:
`

const (
	passMarker = "✓ All statements supported"
	failMarker = "Unsupported:"
)

// Result is C11's verdict.
type Result struct {
	IsSupported bool
	Details     string
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client talks to an Ollama-compatible local model endpoint.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

func NewClient(endpoint, model string, timeoutSeconds int) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		http:     &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// Available probes the endpoint the way local_verifier.py's _check_availability
// does, via a short-timeout GET against /api/tags.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Verify checks an answer against its context. An unreachable backend fails
// open per spec.md §4.11: {is_supported: true, details: "verifier
// unavailable"}. A failing call is made at most twice, with a 1s wait between
// the two attempts; if both fail it also fails open, with details
// "verification error: <cause>".
func (c *Client) Verify(ctx context.Context, answer, contextText string) Result {
	if !c.Available(ctx) {
		return Result{IsSupported: true, Details: "verifier unavailable"}
	}

	prompt := fmt.Sprintf(verificationPromptTemplate, contextText, answer)
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return Result{IsSupported: true, Details: "verifier unavailable"}
	}

	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		text, err := c.call(ctx, body)
		if err == nil {
			return Result{IsSupported: parseVerification(text), Details: text}
		}
		lastErr = err
		if attempt == 2 {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Result{IsSupported: true, Details: "verifier unavailable"}
		}
		backoff *= 5 // 1s -> 5s, matching wait_exponential(min=1, max=5) in two attempts
	}

	return Result{IsSupported: true, Details: fmt.Sprintf("verification error: %v", lastErr)}
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New("ollama returned status " + resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// parseVerification applies the exact contract of spec.md §4.11: supported
// iff the pass marker is present and the fail marker is absent.
func parseVerification(text string) bool {
	return strings.Contains(text, passMarker) && !strings.Contains(text, failMarker)
}
