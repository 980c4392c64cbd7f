package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig is the TOML application configuration
type AppConfig struct {
	Language   string    `toml:"language"`
	Attributes []string  `toml:"attributes"`
	Products   []Product `toml:"product"`
}

// Product is one catalog entry used by the seed command
type Product struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description"`
	Price       float64 `toml:"price"`
	Stock       int     `toml:"stock"`
	Category    string  `toml:"category"`
	Brand       string  `toml:"brand"`
	ImageURL    string  `toml:"image_url"`
}

func (p Product) toModel() *model.Product {
	return &model.Product{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		StockAmount: p.Stock,
		Category:    p.Category,
		Brand:       p.Brand,
		ImageURL:    p.ImageURL,
		Available:   true,
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	seen := make(map[string]bool)
	for _, attr := range a.Attributes {
		key := types.AttributeKey(strings.ToLower(strings.TrimSpace(attr)))
		if err := key.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "invalid attribute name", goerr.V(AttributeKey, attr))
		}
		if seen[key.String()] {
			return goerr.Wrap(ErrInvalidConfig, "duplicate attribute name", goerr.V(AttributeKey, attr))
		}
		seen[key.String()] = true
	}

	names := make(map[string]bool)
	for i, p := range a.Products {
		if err := p.toModel().Validate(); err != nil {
			return goerr.Wrap(errors.Join(ErrInvalidConfig, err), "invalid product", goerr.V(ProductIndexKey, i))
		}
		if names[p.Name] {
			return goerr.Wrap(ErrInvalidConfig, "duplicate product name", goerr.V(ProductIndexKey, i), goerr.V("name", p.Name))
		}
		names[p.Name] = true
	}

	return nil
}

// AllowedAttributes returns the configured attribute schema, or nil when any key is accepted
func (a *AppConfig) AllowedAttributes() []types.AttributeKey {
	if len(a.Attributes) == 0 {
		return nil
	}
	keys := make([]types.AttributeKey, len(a.Attributes))
	for i, attr := range a.Attributes {
		keys[i] = types.AttributeKey(strings.ToLower(strings.TrimSpace(attr)))
	}
	return keys
}

// CatalogSeed returns the configured products, falling back to the built-in sample catalog
func (a *AppConfig) CatalogSeed() []*model.Product {
	src := a.Products
	if len(src) == 0 {
		src = defaultProducts
	}
	products := make([]*model.Product, len(src))
	for i, p := range src {
		products[i] = p.toModel()
	}
	return products
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App holds the --config flag
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML application config (reply language, attribute schema, product catalog)",
			Sources:     cli.EnvVars("STYLIST_CONFIG"),
			Destination: &x.path,
		},
	}
}

func (x App) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", x.path))
}

// Configure loads the config file, or returns an empty config when no path is set
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(x.path)
}

// defaultProducts is the sample catalog shipped with the salon app
var defaultProducts = []Product{
	{Name: "Moisture Boost Shampoo", Description: "Hydrating shampoo for dry and damaged hair", Price: 19.99, Stock: 50, Category: "shampoo", Brand: "HairLab"},
	{Name: "Volume Lift Shampoo", Description: "Adds body and volume to fine hair", Price: 24.99, Stock: 35, Category: "shampoo", Brand: "HairLab"},
	{Name: "Anti-Dandruff Shampoo", Description: "Soothes the scalp and controls flakes", Price: 16.99, Stock: 45, Category: "shampoo", Brand: "HairLab"},
	{Name: "Deep Repair Conditioner", Description: "Intensive repair for brittle hair", Price: 22.99, Stock: 40, Category: "conditioner", Brand: "HairLab"},
	{Name: "Color Protect Conditioner", Description: "Keeps colored hair vibrant", Price: 21.99, Stock: 30, Category: "conditioner", Brand: "HairLab"},
	{Name: "Heat Protectant Spray", Description: "Shields hair from styling heat up to 230C", Price: 18.99, Stock: 60, Category: "styling", Brand: "HairLab"},
	{Name: "Texturizing Sea Salt Spray", Description: "Beachy texture and light hold", Price: 16.99, Stock: 45, Category: "styling", Brand: "HairLab"},
}
