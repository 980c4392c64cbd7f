package gateway_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/service/gateway"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockLLMSession struct {
	generateFn func(ctx context.Context, input []gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.generateFn(ctx, input)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateFn(ctx, input)
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient answers each Generate call with the next scripted reply and keeps the last
// session configuration
type mockLLMClient struct {
	calls   atomic.Int32
	replyFn func(call int) (string, error)

	mu         sync.Mutex
	lastConfig gollem.SessionConfig
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	cfg := gollem.NewSessionConfig(options...)
	c.mu.Lock()
	c.lastConfig = cfg
	c.mu.Unlock()

	return &mockLLMSession{
		generateFn: func(ctx context.Context, input []gollem.Input) (*gollem.Response, error) {
			n := int(c.calls.Add(1))
			text, err := c.replyFn(n)
			if err != nil {
				return nil, err
			}
			return &gollem.Response{Texts: []string{text}}, nil
		},
	}, nil
}

func (c *mockLLMClient) sessionConfig() gollem.SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastConfig
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

type mockCatalog struct {
	products []*model.Product
	err      error
}

func (c *mockCatalog) List(ctx context.Context) ([]*model.Product, error) {
	return c.products, c.err
}

const validReply = `{"style_name":"Layered Bob","description":"Soft layers frame an oval face.","confidence":0.87,"products":["moisture boost shampoo","Unknown Gel"]}`

func newRequest(t *testing.T) *model.ConsultationRequest {
	t.Helper()
	req, err := model.NewConsultationRequest("user-1", "gs://bucket/u/1.jpg",
		map[string]string{"hair_length": "shoulder", "face_shape": "oval"}, "low maintenance", time.Now())
	gt.NoError(t, err).Required()
	return req
}

func newGateway(t *testing.T, llm gollem.LLMClient, opts ...gateway.Option) *gateway.Gateway {
	t.Helper()
	opts = append([]gateway.Option{gateway.WithBackoff(time.Millisecond, 2*time.Millisecond)}, opts...)
	g, err := gateway.New(llm, opts...)
	gt.NoError(t, err).Required()
	return g
}

func TestGateway_Consult(t *testing.T) {
	catalog := &mockCatalog{products: []*model.Product{
		{ID: "p1", Name: "Moisture Boost Shampoo", Category: "Shampoo", Price: 19.99, StockAmount: 50, Available: true},
		{ID: "p2", Name: "Heat Protectant Spray", Category: "Styling", Price: 18.99, StockAmount: 60, Available: true},
	}}

	t.Run("returns parsed recommendation matched against catalog", func(t *testing.T) {
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		llm := &mockLLMClient{replyFn: func(int) (string, error) { return validReply, nil }}
		g := newGateway(t, llm, gateway.WithCatalog(catalog), gateway.WithClock(func() time.Time { return fixed }))
		req := newRequest(t)

		rec, err := g.Consult(context.Background(), req)
		gt.NoError(t, err).Required()

		gt.Value(t, rec.StyleName).Equal("Layered Bob")
		gt.Value(t, rec.Confidence.Float64()).Equal(0.87)
		gt.Value(t, rec.UserID).Equal("user-1")
		gt.Value(t, rec.RequestFingerprint).Equal(req.Fingerprint())
		gt.Value(t, rec.GeneratedAt).Equal(fixed)
		gt.Array(t, rec.Products).Equal([]string{"Moisture Boost Shampoo"})
		gt.Value(t, llm.calls.Load()).Equal(int32(1))
	})

	t.Run("requests JSON with every reply field required", func(t *testing.T) {
		llm := &mockLLMClient{replyFn: func(int) (string, error) { return validReply, nil }}
		_, err := newGateway(t, llm).Consult(context.Background(), newRequest(t))
		gt.NoError(t, err).Required()

		cfg := llm.sessionConfig()
		gt.Value(t, cfg.ContentType()).Equal(gollem.ContentTypeJSON)
		schema := cfg.ResponseSchema()
		gt.Value(t, schema).NotNil().Required()
		gt.Value(t, schema.Type).Equal(gollem.TypeObject)
		for _, field := range []string{"style_name", "description", "confidence", "products"} {
			prop, ok := schema.Properties[field]
			gt.Bool(t, ok).True().Required()
			gt.Bool(t, prop.Required).True()
		}
		gt.NoError(t, schema.Validate())
	})

	t.Run("accepts JSON wrapped in a code fence", func(t *testing.T) {
		llm := &mockLLMClient{replyFn: func(int) (string, error) { return "```json\n" + validReply + "\n```", nil }}
		rec, err := newGateway(t, llm).Consult(context.Background(), newRequest(t))
		gt.NoError(t, err).Required()
		gt.Value(t, rec.StyleName).Equal("Layered Bob")
		gt.Array(t, rec.Products).Equal([]string{"moisture boost shampoo", "Unknown Gel"})
	})

	t.Run("catalog failure degrades to no catalog", func(t *testing.T) {
		llm := &mockLLMClient{replyFn: func(int) (string, error) { return validReply, nil }}
		g := newGateway(t, llm, gateway.WithCatalog(&mockCatalog{err: errors.New("firestore down")}))

		rec, err := g.Consult(context.Background(), newRequest(t))
		gt.NoError(t, err).Required()
		gt.Array(t, rec.Products).Length(2)
	})

	t.Run("transient then success retries", func(t *testing.T) {
		llm := &mockLLMClient{replyFn: func(n int) (string, error) {
			if n == 1 {
				return "", status.Error(codes.Unavailable, "backend unavailable")
			}
			return validReply, nil
		}}

		rec, err := newGateway(t, llm).Consult(context.Background(), newRequest(t))
		gt.NoError(t, err).Required()
		gt.Value(t, rec.StyleName).Equal("Layered Bob")
		gt.Value(t, llm.calls.Load()).Equal(int32(2))
	})

	transientCases := map[string]error{
		"grpc unavailable":  status.Error(codes.Unavailable, "unavailable"),
		"deadline exceeded": context.DeadlineExceeded,
		"http 503":          genai.APIError{Code: 503, Message: "overloaded"},
		"unknown error":     errors.New("connection reset by peer"),
	}
	for name, cause := range transientCases {
		t.Run("exhausts attempts on "+name, func(t *testing.T) {
			llm := &mockLLMClient{replyFn: func(int) (string, error) { return "", cause }}

			_, err := newGateway(t, llm).Consult(context.Background(), newRequest(t))
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, model.ErrGatewayTransient)).True()
			gt.Bool(t, errors.Is(err, model.ErrGatewayPermanent)).False()
			gt.Value(t, llm.calls.Load()).Equal(int32(gateway.DefaultMaxAttempts))
		})
	}

	t.Run("honors configured attempt budget", func(t *testing.T) {
		llm := &mockLLMClient{replyFn: func(int) (string, error) { return "", errors.New("timeout") }}

		_, err := newGateway(t, llm, gateway.WithMaxAttempts(5)).Consult(context.Background(), newRequest(t))
		gt.Bool(t, errors.Is(err, model.ErrGatewayTransient)).True()
		gt.Value(t, llm.calls.Load()).Equal(int32(5))
	})

	permanentCases := map[string]func(int) (string, error){
		"quota exceeded": func(int) (string, error) {
			return "", status.Error(codes.ResourceExhausted, "quota exceeded")
		},
		"http 429": func(int) (string, error) {
			return "", genai.APIError{Code: 429, Message: "too many requests"}
		},
		"invalid argument": func(int) (string, error) {
			return "", status.Error(codes.InvalidArgument, "bad request")
		},
		"malformed response": func(int) (string, error) {
			return "I think a bob would look great!", nil
		},
		"empty style name": func(int) (string, error) {
			return `{"style_name":"  ","description":"x","confidence":0.5,"products":[]}`, nil
		},
		"confidence out of range": func(int) (string, error) {
			return `{"style_name":"Pixie","description":"x","confidence":1.5,"products":[]}`, nil
		},
		"missing confidence": func(int) (string, error) {
			return `{"style_name":"Pixie","description":"x","products":[]}`, nil
		},
	}
	for name, reply := range permanentCases {
		t.Run("does not retry on "+name, func(t *testing.T) {
			llm := &mockLLMClient{replyFn: reply}

			_, err := newGateway(t, llm).Consult(context.Background(), newRequest(t))
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, model.ErrGatewayPermanent)).True()
			gt.Bool(t, errors.Is(err, model.ErrGatewayTransient)).False()
			gt.Value(t, llm.calls.Load()).Equal(int32(1))
		})
	}

	t.Run("stops retrying when caller context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		llm := &mockLLMClient{replyFn: func(int) (string, error) {
			cancel()
			return "", status.Error(codes.Unavailable, "unavailable")
		}}

		_, err := newGateway(t, llm, gateway.WithBackoff(time.Second, time.Second)).Consult(ctx, newRequest(t))
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, context.Canceled)).True()
		gt.Bool(t, errors.Is(err, model.ErrGatewayTransient)).True()
		gt.Value(t, llm.calls.Load()).Equal(int32(1))
	})

	t.Run("requires LLM client", func(t *testing.T) {
		_, err := gateway.New(nil)
		gt.Error(t, err)
	})
}
