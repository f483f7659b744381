package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stockroom/internal/errors"
)

func TestProduct_ApplyIn(t *testing.T) {
	p := Product{ID: 1, Quantity: 10}

	newQty, err := p.Apply(TransactionIn, 5)

	require.NoError(t, err)
	assert.Equal(t, 15, newQty)
	assert.Equal(t, 10, p.Quantity)
}

func TestProduct_ApplyOut(t *testing.T) {
	p := Product{ID: 1, Quantity: 10}

	newQty, err := p.Apply(TransactionOut, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, newQty)
}

func TestProduct_ApplyOut_Insufficient(t *testing.T) {
	p := Product{ID: 3, Quantity: 100}

	newQty, err := p.Apply(TransactionOut, 150)

	require.Error(t, err)
	assert.Equal(t, 100, newQty)
	ise, ok := apperrors.IsInsufficientStockError(err)
	require.True(t, ok)
	assert.Equal(t, 100, ise.Available)
	assert.Equal(t, 3, ise.ProductID)
	assert.Equal(t, "Insufficient stock. Available: 100", err.Error())
}

func TestProduct_ApplyUnknownType(t *testing.T) {
	p := Product{ID: 1, Quantity: 10}

	_, err := p.Apply(TransactionType("ADJUST"), 1)

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestProduct_ApplyIn_CapsAtMaxQuantity(t *testing.T) {
	p := Product{ID: 1, Quantity: 10}

	newQty, err := p.Apply(TransactionIn, MaxQuantity-10)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, newQty)

	newQty, err = p.Apply(TransactionIn, MaxQuantity-9)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "quantity", ve.Details[0].Field)
	assert.Equal(t, 10, newQty)

	_, err = p.Apply(TransactionIn, int(^uint(0)>>1))
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestValidPrice(t *testing.T) {
	tests := []struct {
		price string
		want  bool
	}{
		{"0", true},
		{"2.50", true},
		{"2.500", true},
		{"9999999999.99", true},
		{"2.505", false},
		{"-0.01", false},
		{"10000000000", false},
		{"1e12", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidPrice(decimal.RequireFromString(tt.price)), tt.price)
	}
}

func TestProduct_StockValue(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("12.50"), Quantity: 4}

	assert.True(t, decimal.RequireFromString("50").Equal(p.StockValue()))
}

func TestProduct_IsLowStock(t *testing.T) {
	assert.True(t, Product{Quantity: 49}.IsLowStock(50))
	assert.False(t, Product{Quantity: 50}.IsLowStock(50))
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"in", TransactionIn, true},
		{"OUT", TransactionOut, true},
		{" Out ", TransactionOut, true},
		{"transfer", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseTransactionType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTransactionType_InverseAndSigned(t *testing.T) {
	assert.Equal(t, TransactionOut, TransactionIn.Inverse())
	assert.Equal(t, TransactionIn, TransactionOut.Inverse())
	assert.Equal(t, 5, TransactionIn.Signed(5))
	assert.Equal(t, -5, TransactionOut.Signed(5))
}

func TestProductSummary_Net(t *testing.T) {
	s := ProductSummary{TotalStockIn: 40, TotalStockOut: 15}
	assert.Equal(t, 25, s.Net())
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.True(t, IsValidRole(RoleStaff))
	assert.True(t, IsValidRole(RoleUser))
	assert.False(t, IsValidRole("root"))
}

func TestNewMonthlySeries_Empty(t *testing.T) {
	s := NewMonthlySeries(nil)

	assert.NotNil(t, s.Months)
	assert.Empty(t, s.Months)
	assert.Empty(t, s.StockIn)
}

func TestLowStockItem_SuggestedOrderQuantity(t *testing.T) {
	tests := []struct {
		quantity int
		want     int
	}{
		{0, 100},
		{1, 99},
		{19, 81},
		{20, 50},
		{49, 50},
	}

	for _, tt := range tests {
		item := LowStockItem{Product: Product{Quantity: tt.quantity}}
		assert.Equal(t, tt.want, item.SuggestedOrderQuantity(), "quantity %d", tt.quantity)
	}
}

func TestMovementView_Value(t *testing.T) {
	m := MovementView{ProductPrice: decimal.RequireFromString("3.20")}
	m.Quantity = 5

	assert.Equal(t, "16.00", m.Value().StringFixed(2))
}
