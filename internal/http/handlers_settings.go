package http

import "net/http"

type currencyPayload struct {
	Currency string `json:"currency"`
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.repo.Currency(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyPayload{Currency: currency})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyPayload
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Currency == "" {
		writeError(w, http.StatusUnprocessableEntity, "empty currency")
		return
	}
	if err := s.repo.SetCurrency(r.Context(), req.Currency); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
