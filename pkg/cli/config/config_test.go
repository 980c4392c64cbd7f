package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hairlab/stylist/pkg/cli/config"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stylist.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration",
			content: `
language = "Vietnamese"
attributes = ["hair_length", "Face_Shape", "hair_color"]

[[product]]
name = "Moisture Boost Shampoo"
price = 19.99
stock = 50
category = "shampoo"
brand = "HairLab"

[[product]]
name = "Heat Protectant Spray"
price = 18.99
stock = 60
category = "styling"
`,
		},
		{
			name:    "empty configuration",
			content: ``,
		},
		{
			name:    "invalid attribute name",
			content: `attributes = ["hair length"]`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "duplicate attribute",
			content: `attributes = ["hair_length", "HAIR_LENGTH"]`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "product without category",
			content: `
[[product]]
name = "Mystery Tonic"
price = 5.0
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "duplicate product",
			content: `
[[product]]
name = "Volume Lift Shampoo"
category = "shampoo"

[[product]]
name = "Volume Lift Shampoo"
category = "shampoo"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "malformed TOML",
			content: `language = `,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.True(t, errors.Is(err, tt.wantErr))
				return
			}
			gt.NoError(t, err)
			gt.Value(t, cfg).NotNil()
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "nope.toml"))
		gt.True(t, errors.Is(err, config.ErrConfigNotFound))
	})
}

func TestAppConfig_Accessors(t *testing.T) {
	cfg, err := config.LoadAppConfiguration(writeConfig(t, `
language = "Vietnamese"
attributes = ["hair_length", " Face_Shape "]

[[product]]
name = "Volume Lift Shampoo"
price = 24.99
stock = 35
category = "shampoo"
`))
	gt.NoError(t, err)

	gt.Value(t, cfg.Language).Equal("Vietnamese")
	gt.Value(t, cfg.AllowedAttributes()).Equal([]types.AttributeKey{"hair_length", "face_shape"})

	seed := cfg.CatalogSeed()
	gt.A(t, seed).Length(1)
	gt.Value(t, seed[0].StockAmount).Equal(35)
	gt.True(t, seed[0].Available)

	t.Run("defaults", func(t *testing.T) {
		empty := &config.AppConfig{}
		gt.Value(t, empty.AllowedAttributes()).Nil()

		seed := empty.CatalogSeed()
		gt.A(t, seed).Length(7)
		for _, p := range seed {
			gt.NoError(t, p.Validate())
		}
	})
}

func TestAuth_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("no-auth mode returns no verifier", func(t *testing.T) {
		v, err := config.NewAuthForTest("", "dev-user").Configure(ctx)
		gt.NoError(t, err)
		gt.Value(t, v).Nil()
	})

	t.Run("requires a mode", func(t *testing.T) {
		_, err := config.NewAuthForTest("", "").Configure(ctx)
		gt.Error(t, err)
	})

	t.Run("modes are exclusive", func(t *testing.T) {
		_, err := config.NewAuthForTest("my-project", "dev-user").Configure(ctx)
		gt.Error(t, err)
	})
}

type nopLLM struct{}

func (nopLLM) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (nopLLM) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

func TestGateway_Configure(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		gw, err := config.NewGatewayForTest(3, 500*time.Millisecond, 5*time.Second).Configure(nopLLM{}, nil, "")
		gt.NoError(t, err)
		gt.Value(t, gw).NotNil()
	})

	t.Run("zero attempts", func(t *testing.T) {
		_, err := config.NewGatewayForTest(0, 500*time.Millisecond, 5*time.Second).Configure(nopLLM{}, nil, "")
		gt.Error(t, err)
	})

	t.Run("max interval below initial", func(t *testing.T) {
		_, err := config.NewGatewayForTest(3, 5*time.Second, time.Second).Configure(nopLLM{}, nil, "")
		gt.Error(t, err)
	})
}

func TestLogger_Configure(t *testing.T) {
	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stylist.log")
		closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
		gt.NoError(t, err)
		closer()

		_, err = os.Stat(path)
		gt.NoError(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "console", "-").Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "-").Configure()
		gt.Error(t, err)
	})
}

func TestCache_Configure(t *testing.T) {
	t.Run("memory only", func(t *testing.T) {
		c, store, err := config.NewCacheForTest(time.Hour, 100, "").Configure()
		gt.NoError(t, err)
		gt.Value(t, c).NotNil()
		gt.Value(t, store).Nil()
	})

	t.Run("with sqlite store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.db")
		c, store, err := config.NewCacheForTest(time.Hour, 100, path).Configure()
		gt.NoError(t, err)
		gt.Value(t, c).NotNil()
		gt.Value(t, store).NotNil()
		gt.NoError(t, store.Close())
	})
}
