package htmlfallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
)

func TestExtractSpecs(t *testing.T) {
	s := extractSpecs("Dell OptiPlex with Intel Core i7-8700, 16GB RAM, 512GB SSD storage")
	assert.Equal(t, "Intel Core i7-8700", s.CPUModel)
	assert.Equal(t, 16, s.RamGB)
	assert.Equal(t, 512, s.StorageGB)
}

func TestExtractSpecsTerabyteStorage(t *testing.T) {
	s := extractSpecs("Ryzen 7 5800X desktop, 32 GB DDR4, 1TB NVMe")
	assert.Equal(t, 32, s.RamGB)
	assert.Equal(t, 1024, s.StorageGB)
}

func TestExtractSpecsStorageBeforeRamDoesNotMisreadRam(t *testing.T) {
	s := extractSpecs("Dell OptiPlex 512GB SSD 16GB RAM")
	assert.Equal(t, 512, s.StorageGB)
	assert.Equal(t, 16, s.RamGB)
}

func TestExtractJSONLDProduct(t *testing.T) {
	raw := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"Mini PC","description":"Intel i5-10400, 16GB RAM, 256GB SSD",
	 "offers":{"price":"249.99","priceCurrency":"USD","availability":"InStock"}}
	</script></head><body></body></html>`
	doc, err := html.Parse(strings.NewReader(raw))
	assert.NoError(t, err)

	n := extractJSONLD(doc)
	assert.NotNil(t, n)
	assert.Equal(t, "Mini PC", n.Title)
	assert.Equal(t, 249.99, *n.PriceUSD)
	assert.Equal(t, "new", n.Condition)
}

func TestExtractMetaTagsFallback(t *testing.T) {
	raw := `<html><head>
	<meta property="og:title" content="Refurb Desktop">
	<meta property="og:price:amount" content="199.00">
	<meta property="og:price:currency" content="USD">
	</head><body></body></html>`
	doc, err := html.Parse(strings.NewReader(raw))
	assert.NoError(t, err)

	n := extractMetaTags(doc)
	assert.NotNil(t, n)
	assert.Equal(t, "Refurb Desktop", n.Title)
	assert.Equal(t, 199.00, *n.PriceUSD)
}

func TestParsePriceVariants(t *testing.T) {
	v, ok := parsePrice("$1,599.99")
	assert.True(t, ok)
	assert.Equal(t, 1599.99, v)

	v2, ok := parsePrice(249.5)
	assert.True(t, ok)
	assert.Equal(t, 249.5, v2)
}
