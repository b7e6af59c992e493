package repository_test

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_GetProductByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewProductRepo(db)
	ctx := t.Context()
	expectedSQL := regexp.QuoteMeta(`FROM products`)
	columns := []string{"id", "name", "category", "price", "stock_quantity", "image", "status", "created_at", "updated_at"}

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(expectedSQL).
			WithArgs("tie-silk").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("tie-silk", "Silk Tie", "ties", "24.99", int64(12), "", models.ProductStatusActive, now, now))

		product, err := repo.GetProductByID(ctx, "tie-silk")

		require.NoError(t, err)
		assert.Equal(t, "Silk Tie", product.Name)
		assert.Equal(t, "ties", product.Category)
		assert.Equal(t, "24.99", product.Price.StringFixed(2))
		assert.Equal(t, 12, product.StockQuantity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		mock.ExpectQuery(expectedSQL).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		product, err := repo.GetProductByID(ctx, "missing")

		assert.Nil(t, product)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
