package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/goalfund/goalfund/internal/model"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var errEmptyResponse = errors.New("empty model response")

// contentGenerator is the subset of genai.Models the provider calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider implements Provider with the Gemini API.
type GeminiProvider struct {
	models contentGenerator
	model  string
	now    func() time.Time
}

// NewGeminiProvider creates a Gemini API client for apiKey.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiProvider(client.Models, modelName), nil
}

func newGeminiProvider(models contentGenerator, modelName string) *GeminiProvider {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiProvider{
		models: models,
		model:  modelName,
		now:    time.Now,
	}
}

var categoryEnum = []string{
	model.CategorySaving,
	model.CategoryInvesting,
	model.CategoryBudgeting,
	model.CategoryDebt,
	model.CategoryIncome,
	model.CategoryGeneral,
}

var iconEnum = []string{
	model.IconSavings,
	model.IconAccountBalance,
	model.IconTrendingUp,
	model.IconCreditCard,
}

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":    {Type: genai.TypeString, Description: "Short, attention-grabbing title, at most 10 words."},
		"content":  {Type: genai.TypeString, Description: "The actual advice, at most 40 words."},
		"category": {Type: genai.TypeString, Enum: categoryEnum},
	},
	Required: []string{"title", "content", "category"},
}

var tipsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":    {Type: genai.TypeString, Description: "Short, attention-grabbing title, at most 10 words."},
			"content":  {Type: genai.TypeString, Description: "The actual advice, at most 40 words."},
			"category": {Type: genai.TypeString, Enum: categoryEnum},
			"icon":     {Type: genai.TypeString, Enum: iconEnum},
		},
		Required: []string{"title", "content", "category", "icon"},
	},
}

const systemInstruction = `You are a personal finance advisor. Give practical, specific advice
based only on the figures provided. Do not invent figures the user did not give you.`

// GoalInsight asks the model for one actionable insight about goal.
func (p *GeminiProvider) GoalInsight(ctx context.Context, goal GoalSnapshot) (Suggestion, error) {
	days := int(goal.TargetDate.Sub(p.now()).Hours() / 24)

	var b strings.Builder
	b.WriteString("Give me ONE specific actionable insight for my financial goal.\n\n")
	fmt.Fprintf(&b, "Goal name: %s\n", goal.Name)
	fmt.Fprintf(&b, "Category: %s\n", goal.Category)
	if goal.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", goal.Description)
	}
	fmt.Fprintf(&b, "Target amount: %s\n", model.FormatMoney(goal.TargetAmount, goal.Currency))
	fmt.Fprintf(&b, "Current amount: %s\n", model.FormatMoney(goal.CurrentAmount, goal.Currency))
	fmt.Fprintf(&b, "Progress: %d%%\n", goal.Progress)
	fmt.Fprintf(&b, "Days remaining: %d\n", days)

	var out struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	if err := p.generateJSON(ctx, b.String(), suggestionSchema, &out); err != nil {
		return Suggestion{}, err
	}

	return Suggestion{
		Title:    out.Title,
		Content:  out.Content,
		Category: out.Category,
		Source:   model.InsightSourceProvider,
	}, nil
}

// PortfolioAdvice asks the model for four tips covering different areas.
func (p *GeminiProvider) PortfolioAdvice(ctx context.Context, portfolio PortfolioSnapshot) ([]model.FinancialTip, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Give me %d different financial tips for this profile.\n\n", TipCount)
	fmt.Fprintf(&b, "Total savings: %s\n", model.FormatMoney(portfolio.TotalSavings, portfolio.Currency))
	fmt.Fprintf(&b, "Active goals: %d\n", portfolio.ActiveGoalsCount)
	fmt.Fprintf(&b, "Monthly budget: %s, remaining this month: %s\n",
		model.FormatMoney(portfolio.MonthlyBudget, portfolio.Currency),
		model.FormatMoney(portfolio.BudgetRemaining, portfolio.Currency))
	b.WriteString("\nGoals:\n")
	for _, g := range portfolio.Goals {
		fmt.Fprintf(&b, "- %s (%s): %s of %s (%d%% complete)\n",
			g.Name, g.Category,
			model.FormatMoney(g.CurrentAmount, portfolio.Currency),
			model.FormatMoney(g.TargetAmount, portfolio.Currency),
			g.Progress)
	}
	b.WriteString("\nCover spending optimization, interest rates, investment opportunities and general financial health.")

	var tips []model.FinancialTip
	if err := p.generateJSON(ctx, b.String(), tipsSchema, &tips); err != nil {
		return nil, err
	}
	return tips, nil
}

func (p *GeminiProvider) generateJSON(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return errEmptyResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return errEmptyResponse
	}

	if err := json.Unmarshal([]byte(text.String()), out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}
