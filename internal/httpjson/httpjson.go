// Package httpjson escreve respostas JSON no formato usado pela API:
// sucesso com o corpo serializado, erro como {"detail": "..."}.
package httpjson

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Detail string `json:"detail"`
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, detail string) {
	Write(w, status, ErrorBody{Detail: detail})
}
