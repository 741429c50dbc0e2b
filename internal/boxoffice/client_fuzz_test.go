package boxoffice

import (
	"testing"
	"time"
)

func FuzzConvertToResult(f *testing.F) {
	f.Add(int64(836800000), "Inception", "USD", "BoxAPI", true)
	f.Add(int64(-5), "", "", "", false)

	f.Fuzz(func(t *testing.T, worldwide int64, title, currency, source string, stamped bool) {
		var body grossPayload
		body.Title = title
		body.Revenue.Worldwide = worldwide
		body.Currency = currency
		body.Source = source
		if stamped {
			at := time.Unix(worldwide%1e9, 0)
			body.LastUpdated = &at
		}

		result := convertToResult(body)
		if result.Collection < 0 {
			t.Fatalf("collection should never be negative, got %d", result.Collection)
		}
		if worldwide >= 0 && result.Collection != worldwide {
			t.Fatalf("collection = %d, want %d", result.Collection, worldwide)
		}
		if result.Currency == "" || result.Source == "" {
			t.Fatalf("currency and source must default, got %q/%q", result.Currency, result.Source)
		}
		if result.LastUpdated.Location() != time.UTC {
			t.Fatalf("last updated should be UTC")
		}
	})
}
