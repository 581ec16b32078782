// Package troubleshoot asks a hosted language model for remediation steps
// for one event log entry.
package troubleshoot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

const (
	DefaultModel   = "gemini-2.5-pro"
	DefaultTimeout = 60 * time.Second

	NoErrorDetail  = "No specific error detailed"
	EmptyResponse  = "The AI assistant processed the request but returned no content. Check the parameters."
	InvalidAPIKey  = "Error: API key missing or invalid. Check the environment variables."
	genericFailure = "An error occurred while contacting the AI assistant: %s"
)

var authMarkers = []string{"API key not valid", "API_KEY_INVALID", "PERMISSION_DENIED", "UNAUTHENTICATED"}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `You are an expert support engineer for a SaaS automation platform (Plan Automator).
The owner of a micro-SaaS hit a failure while activating a plan. Give clear, actionable troubleshooting steps.

**Problem details:**
- **Checkout platform:** %s
- **Customer e-mail:** %s
- **SaaS plan:** %s
- **Date/time:** %s
- **Technical error message:** "%s"

**Response instructions:**
1. Analyse the context and briefly explain the likely cause (e.g. authentication error, timeout, wrong plan mapping).
2. Give a list of 3 to 5 practical steps the SaaS owner can take to fix it.
3. Format the output as clean Markdown (## headings and lists).
4. Keep the tone professional and solution-focused.
`

// BuildPrompt renders the fixed prompt for an entry.
func BuildPrompt(e models.LogEntry) string {
	detail := strings.TrimSpace(e.Error)
	if detail == "" {
		detail = NoErrorDetail
	}
	return fmt.Sprintf(promptTemplate,
		e.Provider,
		e.UserEmail,
		e.Plan,
		e.Timestamp.Format("2006-01-02 15:04:05 MST"),
		detail,
	)
}

// Assistant turns generator failures into user-facing text; Diagnose never
// returns an error.
type Assistant struct {
	gen     Generator
	timeout time.Duration
}

func NewAssistant(gen Generator, timeout time.Duration) *Assistant {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Assistant{gen: gen, timeout: timeout}
}

func (a *Assistant) Diagnose(ctx context.Context, e models.LogEntry) string {
	if a.gen == nil {
		return InvalidAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.gen.Generate(ctx, BuildPrompt(e))
	if err != nil {
		logger.Get().Error("troubleshooting request failed", zap.String("entry", e.ID), zap.Error(err))
		if IsAuthError(err) {
			return InvalidAPIKey
		}
		return fmt.Sprintf(genericFailure, err.Error())
	}
	if text == "" {
		return EmptyResponse
	}
	return text
}

// IsAuthError reports whether the service rejected the credentials.
func IsAuthError(err error) bool {
	msg := err.Error()
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator returns nil without error when apiKey is empty, so the
// assistant answers with the invalid-key message.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, nil
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
