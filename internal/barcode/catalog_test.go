package barcode

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeParquet builds a tiny dump in the list-of-struct layout used by the
// Hugging Face export
func writeParquet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.parquet")

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	query := fmt.Sprintf(`
		COPY (
			SELECT '8906001200015' AS code,
			       [{'lang': 'main', 'text': 'Masoor Dal'}, {'lang': 'fr', 'text': 'Lentilles'}] AS product_name,
			       'Desi Foods' AS brands,
			       [{'name': 'energy-kcal', '100g': 352.0::DOUBLE}, {'name': 'proteins', '100g': 24.6::DOUBLE}, {'name': 'sodium', '100g': 0.006::DOUBLE}] AS nutriments,
			       ['en:vegan', 'en:vegetarian'] AS labels_tags,
			       [{'lang': 'main', 'text': 'red lentils'}] AS ingredients_text,
			       '100 g' AS serving_size
		) TO '%s' (FORMAT PARQUET)`, path)
	_, err = db.Exec(query)
	require.NoError(t, err)
	return path
}

func TestDuckDBCatalog_ProductByBarcode(t *testing.T) {
	catalog, err := NewDuckDBCatalog(writeParquet(t), testLogger())
	require.NoError(t, err)
	defer catalog.Close()

	ctx := context.Background()
	require.NoError(t, catalog.TestConnection(ctx))

	p, err := catalog.ProductByBarcode(ctx, "8906001200015")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Masoor Dal", p.ProductName)
	assert.Equal(t, "Desi Foods", p.Brands)
	assert.Equal(t, "red lentils", p.IngredientsText)
	assert.True(t, p.HasLabel("Vegan"))

	res := ToScanResult(p, "8906001200015", time.Unix(0, 0))
	assert.Equal(t, 352.0, res.Nutrition.Calories)
	assert.Equal(t, 24.6, res.Nutrition.Protein)
	assert.Equal(t, 6.0, res.Nutrition.Sodium)

	missing, err := catalog.ProductByBarcode(ctx, "0000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuckDBCatalog_MissingFile(t *testing.T) {
	catalog, err := NewDuckDBCatalog("/nonexistent/file.parquet", testLogger())
	require.NoError(t, err)
	defer catalog.Close()

	ctx := context.Background()
	assert.Error(t, catalog.TestConnection(ctx))

	_, err = catalog.ProductByBarcode(ctx, "123")
	assert.Error(t, err)
}

func TestLocalizedText(t *testing.T) {
	assert.Equal(t, "", localizedText(""))
	assert.Equal(t, "", localizedText("null"))
	assert.Equal(t, "Plain", localizedText(`"Plain"`))
	assert.Equal(t, "English", localizedText(`[{"lang":"de","text":"Deutsch"},{"lang":"en","text":"English"}]`))
	assert.Equal(t, "Deutsch", localizedText(`[{"lang":"de","text":"Deutsch"}]`))
}

func TestNutrimentMap(t *testing.T) {
	flat := nutrimentMap(`{"proteins_100g": 3.2}`)
	assert.Equal(t, 3.2, flat["proteins_100g"])

	list := nutrimentMap(`[{"name":"fat","100g":1.5},{"name":"salt","100g":null}]`)
	assert.Equal(t, 1.5, list["fat_100g"])
	_, ok := list["salt_100g"]
	assert.False(t, ok)

	assert.Empty(t, nutrimentMap(`42`))
}
