package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
)

// ParseOptionalDecimal reads an optional decimal query parameter.
// A missing or empty parameter yields nil; a malformed one is answered with 400 and ok=false.
func ParseOptionalDecimal(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (value *decimal.Decimal, ok bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, raw))
		return nil, false
	}
	return &d, true
}
