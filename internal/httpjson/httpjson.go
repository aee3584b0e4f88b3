package httpjson

import (
	"encoding/json"
	"net/http"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, ErrorBody{Error: message})
}

// WriteFailure ajoute le code d'issue stable ("kind") au payload d'erreur.
func WriteFailure(w http.ResponseWriter, status int, kind, message string) {
	Write(w, status, ErrorBody{Error: message, Kind: kind})
}
