package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/kimiashop/orderflow/internal/errs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errs.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(errs.KindOf(err)),
	})
}
