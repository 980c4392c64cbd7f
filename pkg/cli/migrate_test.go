package cli

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestGetIndexConfig(t *testing.T) {
	cfg := getIndexConfig("test")
	gt.A(t, cfg.Collections).Length(1)
	gt.Value(t, cfg.Collections[0].Name).Equal("test_products")
	gt.A(t, cfg.Collections[0].Indexes[0].Fields).Length(2)
}
