package perf

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/inventario/internal/app"
	"github.com/odyssey-erp/inventario/internal/inventory"
	"github.com/odyssey-erp/inventario/internal/products"
)

func BenchmarkCORSPreflight(b *testing.B) {
	h := app.CORS([]string{"http://localhost:5173"})(http.NotFoundHandler())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/sales", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkMargin(b *testing.B) {
	price := decimal.RequireFromString("149.99")
	cost := decimal.NewNullDecimal(decimal.RequireFromString("89.50"))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = products.Margin(price, cost)
	}
}

func BenchmarkWriteSalesXLSX(b *testing.B) {
	sales := make([]inventory.Sale, 1000)
	for i := range sales {
		id := int64(i + 1)
		sales[i] = inventory.Sale{
			ID:          id,
			CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			ProductName: "Taladro percutor 650W",
			ProductID:   &id,
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("89.90"),
			TotalAmount: decimal.RequireFromString("179.80"),
			UnitCost:    decimal.NewNullDecimal(decimal.RequireFromString("53.94")),
		}
	}
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := inventory.WriteSalesXLSX(&buf, sales); err != nil {
			b.Fatal(err)
		}
		_, _ = io.Copy(io.Discard, &buf)
	}
}
