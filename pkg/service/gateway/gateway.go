package gateway

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

//go:embed prompt/consult_system.md
var consultSystemPromptTmpl string

//go:embed prompt/consult_user.md
var consultUserPromptTmpl string

var (
	consultSystemPrompt = template.Must(template.New("consult_system").Parse(consultSystemPromptTmpl))
	consultUserPrompt   = template.Must(template.New("consult_user").Parse(consultUserPromptTmpl))
)

const (
	DefaultMaxAttempts     = 3
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultAttemptTimeout  = 60 * time.Second
	DefaultLanguage        = "English"
)

// Catalog provides the products the LLM may recommend
type Catalog interface {
	List(ctx context.Context) ([]*model.Product, error)
}

// Gateway asks a gollem LLM client for hairstyle recommendations
type Gateway struct {
	llmClient       gollem.LLMClient
	catalog         Catalog
	language        string
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	attemptTimeout  time.Duration
	now             func() time.Time
}

type Option func(*Gateway)

// WithCatalog adds in-stock products of catalog to the prompt
func WithCatalog(catalog Catalog) Option {
	return func(g *Gateway) {
		g.catalog = catalog
	}
}

// WithLanguage sets the language of the generated style name and description
func WithLanguage(language string) Option {
	return func(g *Gateway) {
		if language != "" {
			g.language = language
		}
	}
}

// WithMaxAttempts sets the total number of attempts including the first one
func WithMaxAttempts(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial and maximum retry intervals
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(g *Gateway) {
		g.initialInterval = initial
		g.maxInterval = maxInterval
	}
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.attemptTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// New creates a Gateway with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Gateway, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	g := &Gateway{
		llmClient:       llmClient,
		language:        DefaultLanguage,
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
		attemptTimeout:  DefaultAttemptTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Consult returns a recommendation for req. Transient failures are retried with exponential
// backoff up to the attempt budget; permanent failures return after the first attempt.
func (g *Gateway) Consult(ctx context.Context, req *model.ConsultationRequest) (*model.Recommendation, error) {
	logger := logging.From(ctx).With("fingerprint", req.Fingerprint())

	products := g.loadProducts(ctx)

	systemPrompt, err := buildSystemPrompt(g.language, products)
	if err != nil {
		return nil, permanentError(err, "failed to build system prompt")
	}
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return nil, permanentError(err, "failed to build user prompt")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.initialInterval
	b.MaxInterval = g.maxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.maxAttempts-1)), ctx)

	var (
		rec     *model.Recommendation
		attempt int
	)
	operation := func() error {
		attempt++
		r, err := g.consultOnce(ctx, req, systemPrompt, userPrompt, products)
		if err != nil {
			if errors.Is(err, model.ErrGatewayPermanent) {
				attemptsTotal.WithLabelValues(outcomePermanent).Inc()
				return backoff.Permanent(err)
			}
			attemptsTotal.WithLabelValues(outcomeTransient).Inc()
			return err
		}
		attemptsTotal.WithLabelValues(outcomeSuccess).Inc()
		rec = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("LLM consultation failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, model.ErrGatewayPermanent) {
			return nil, transientError(ctxErr, "consultation aborted",
				goerr.V(model.FingerprintKey, req.Fingerprint()),
				goerr.V("attempts", attempt))
		}
		return nil, goerr.Wrap(err, "consultation failed",
			goerr.V(model.FingerprintKey, req.Fingerprint()),
			goerr.V("attempts", attempt))
	}

	logger.Debug("consultation completed", "attempts", attempt, "style", rec.StyleName)
	return rec, nil
}

func (g *Gateway) consultOnce(ctx context.Context, req *model.ConsultationRequest, systemPrompt, userPrompt string, products []*model.Product) (*model.Recommendation, error) {
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}

	session, err := g.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return nil, classify(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(userPrompt)})
	if err != nil {
		return nil, classify(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, permanentError(nil, "LLM returned no text")
	}

	return g.parseResponse(req, strings.Join(resp.Texts, ""), products)
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	StyleName   string   `json:"style_name"`
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence"`
	Products    []string `json:"products"`
}

func (g *Gateway) parseResponse(req *model.ConsultationRequest, text string, products []*model.Product) (*model.Recommendation, error) {
	var resp llmResponse
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &resp); err != nil {
		return nil, permanentError(err, "malformed LLM response", goerr.V("response", text))
	}
	if resp.Confidence == nil {
		return nil, permanentError(nil, "LLM response has no confidence", goerr.V("response", text))
	}

	rec := &model.Recommendation{
		UserID:             req.UserID(),
		RequestFingerprint: req.Fingerprint(),
		StyleName:          strings.TrimSpace(resp.StyleName),
		Description:        strings.TrimSpace(resp.Description),
		Confidence:         types.Confidence(*resp.Confidence),
		Products:           matchProducts(resp.Products, products),
		GeneratedAt:        g.now(),
	}
	if err := rec.Validate(); err != nil {
		return nil, permanentError(err, "invalid LLM response", goerr.V("response", text))
	}

	return rec, nil
}

// loadProducts returns the in-stock catalog. Lookup failures degrade to an empty catalog.
func (g *Gateway) loadProducts(ctx context.Context) []*model.Product {
	if g.catalog == nil {
		return nil
	}

	all, err := g.catalog.List(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load product catalog, consulting without products", "error", err)
		return nil
	}

	products := make([]*model.Product, 0, len(all))
	for _, p := range all {
		if p.InStock() {
			products = append(products, p)
		}
	}
	return products
}

// matchProducts keeps unique suggested names. With a catalog, names are matched
// case-insensitively and replaced by the catalog spelling; unknown names are dropped.
func matchProducts(suggested []string, catalog []*model.Product) []string {
	known := make(map[string]string, len(catalog))
	for _, p := range catalog {
		known[strings.ToLower(p.Name)] = p.Name
	}

	seen := make(map[string]struct{}, len(suggested))
	result := make([]string, 0, len(suggested))
	for _, name := range suggested {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(catalog) > 0 {
			canonical, ok := known[strings.ToLower(name)]
			if !ok {
				continue
			}
			name = canonical
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildSystemPrompt(language string, products []*model.Product) (string, error) {
	var buf bytes.Buffer
	if err := consultSystemPrompt.Execute(&buf, struct {
		Language string
		Products []*model.Product
	}{
		Language: language,
		Products: products,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute system prompt template")
	}
	return buf.String(), nil
}

type promptAttribute struct {
	Key   string
	Value string
}

func buildUserPrompt(req *model.ConsultationRequest) (string, error) {
	attrs := req.Attributes()
	keys := req.AttributeKeys()
	list := make([]promptAttribute, 0, len(keys))
	for _, k := range keys {
		list = append(list, promptAttribute{Key: strings.ReplaceAll(k, "_", " "), Value: attrs[k]})
	}

	var buf bytes.Buffer
	if err := consultUserPrompt.Execute(&buf, struct {
		ImageRef   string
		Attributes []promptAttribute
		Preference string
	}{
		ImageRef:   req.ImageRef(),
		Attributes: list,
		Preference: req.Preference(),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute user prompt template")
	}
	return buf.String(), nil
}

func buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "HairstyleRecommendation",
		Description: "A single hairstyle recommendation for the client",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"style_name": {
				Type:        gollem.TypeString,
				Description: "Short name of the recommended hairstyle",
				Required:    true,
			},
			"description": {
				Type:        gollem.TypeString,
				Description: "Why the style suits the client, with care and styling advice",
				Required:    true,
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Description: "Confidence that the style suits the client, between 0 and 1",
				Required:    true,
			},
			"products": {
				Type:        gollem.TypeArray,
				Description: "Names of recommended products",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
			},
		},
	}
}
