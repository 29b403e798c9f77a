package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/edaloom/internal/utils"
)

// ErrorPrefix starts the text of every failed recommendation.
const ErrorPrefix = "An error occurred while obtaining the analysis: "

// DefaultPromptTemplate asks for an EDA plan over the summary text.
const DefaultPromptTemplate = `Analyze the following dataset:
{{.Summary}}
Pose basic questions to answer and propose hypotheses to work on, perform an EDA analysis, analyze improvements and provide recommendations, also perform a multivariate analysis and finally show a Python implementation using the standard data science libraries best suited to the model.`

// Config is passed explicitly to NewRequester.
type Config struct {
	Provider       string        `validate:"required,provider"`
	APIKey         string        `validate:"required"`
	Model          string        `validate:"required"`
	PromptTemplate string        `validate:"required"`
	BaseURL        string        `validate:"omitempty,url"`
	HTTPTimeout    time.Duration `validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		_, ok := registry[fl.Field().String()]
		return ok
	})
	return v
}

// Validate reports the first invalid field in a readable form.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "provider":
			msgs = append(msgs, fmt.Sprintf("unknown provider %q (available: %s)", fe.Value(), strings.Join(Providers(), ", ")))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid ai config: %s", strings.Join(msgs, "; "))
}

// Result is the outcome of one recommendation request. On failure Text carries
// ErrorPrefix followed by the cause.
type Result struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
	Err    error  `json:"-"`
}

func failure(err error) Result {
	return Result{Text: ErrorPrefix + err.Error(), Failed: true, Err: err}
}

// Recommender turns a summary text into recommendations. Implementations never fail;
// errors are reported through Result.
type Recommender interface {
	Recommend(ctx context.Context, summary string) Result
}

// Requester submits summaries to a hosted model.
type Requester struct {
	runtime Runtime
	model   string
	prompt  *template.Template
}

// NewRequester validates cfg and builds the provider runtime.
func NewRequester(cfg Config) (*Requester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, _ := GetRuntime(cfg.Provider, RuntimeConfig{APIKey: cfg.APIKey, HTTPTimeout: cfg.HTTPTimeout, BaseURL: cfg.BaseURL})
	return newRequester(cfg, rt)
}

func newRequester(cfg Config, rt Runtime) (*Requester, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(cfg.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Requester{runtime: rt, model: cfg.Model, prompt: tmpl}, nil
}

// Prompt renders the prompt for a summary.
func (r *Requester) Prompt(summary string) (string, error) {
	var b strings.Builder
	if err := r.prompt.Execute(&b, map[string]string{"Summary": summary}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// Recommend sends the summary to the model and returns its text. It makes exactly one
// attempt; every failure becomes a Result with Failed set.
func (r *Requester) Recommend(ctx context.Context, summary string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failure(fmt.Errorf("%v", p))
		}
	}()
	prompt, err := r.Prompt(summary)
	if err != nil {
		return failure(err)
	}
	start := time.Now()
	slog.Debug("requesting recommendation", "model", r.model, "prompt_tokens_est", utils.CountTokens(prompt))
	out, err := r.runtime.Generate(ctx, userPrompt(r.model, prompt))
	if err != nil {
		slog.Warn("recommendation failed", "model", r.model, "error", err, "elapsed", time.Since(start))
		return failure(err)
	}
	slog.Info("recommendation received",
		"model", r.model,
		"request_id", out.RequestID,
		"total_tokens", out.Usage.TotalTokens,
		"elapsed", time.Since(start))
	return Result{Text: out.Text}
}

// Unavailable returns a Recommender that reports err for every request. It stands in
// when no Requester could be built (for example a missing API key).
func Unavailable(err error) Recommender { return unavailable{err: err} }

type unavailable struct{ err error }

func (u unavailable) Recommend(context.Context, string) Result { return failure(u.err) }
