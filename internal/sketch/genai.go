package sketch

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/res"
)

// DefaultModel is an image-capable Gemini model
const DefaultModel = "gemini-2.5-flash-image"

const (
	visualizedInstruction = "Create a photorealistic visualization of the finished garment on a plain studio background."
	flatSketchInstruction = "Create a clean black-and-white technical flat sketch of the garment, front view, no shading, white background."
)

// GenAIGenerator generates sketches with a Gemini model. Input images are
// fetched through the loader and sent inline.
type GenAIGenerator struct {
	client *genai.Client
	model  string
	loader *res.Loader
	logger *zap.Logger
}

var _ Generator = (*GenAIGenerator)(nil)

// GenAIConfig configures the Gemini client
type GenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint
	BaseURL string
}

// NewGenAIGenerator creates a generator fetching inputs through loader
func NewGenAIGenerator(ctx context.Context, cfg GenAIConfig, loader *res.Loader, logger *zap.Logger) (*GenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if loader == nil {
		loader = res.NewLoader("")
	}
	if logger == nil {
		logger = logging.Named("sketch")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: cfg.Model, loader: loader, logger: logger}, nil
}

// Name returns the generator name
func (g *GenAIGenerator) Name() string {
	return "genai:" + g.model
}

func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	inputs := make([]*genai.Part, 0, len(req.Images))
	for _, u := range req.Images {
		r, err := g.loader.LoadImage(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("sketch input: %w", err)
		}
		inputs = append(inputs, genai.NewPartFromBytes(r.Data, r.MimeType))
	}

	out := &Response{ID: uuid.NewString()}
	eg, ctx := errgroup.WithContext(ctx)
	if req.Options.Visualized {
		eg.Go(func() error {
			img, err := g.generate(ctx, inputs, visualizedInstruction, req.Prompt)
			out.VisualizedImage = img
			return err
		})
	}
	if req.Options.FlatSketch {
		eg.Go(func() error {
			img, err := g.generate(ctx, inputs, flatSketchInstruction, req.Prompt)
			out.FlatSketchImage = img
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info("sketch generated",
		zap.String("id", out.ID),
		zap.String("model", g.model),
		zap.Int("images", len(inputs)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// generate runs one model call and returns the first image as a data URL
func (g *GenAIGenerator) generate(ctx context.Context, inputs []*genai.Part, instruction, prompt string) (string, error) {
	text := instruction
	if p := strings.TrimSpace(prompt); p != "" {
		text += "\n\n" + p
	}
	parts := append(append([]*genai.Part{}, inputs...), genai.NewPartFromText(text))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	var note string
	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mt := part.InlineData.MIMEType
				if mt == "" {
					mt = "image/png"
				}
				return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
			if part.Text != "" && note == "" {
				note = part.Text
			}
		}
	}
	if note == "" {
		note = "model returned no image"
	}
	return "", &RemoteError{Message: note}
}
