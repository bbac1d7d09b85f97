package controllers

import (
	"net/http"

	"github.com/atelierline/artmarket-backend/api/middleware"
	"github.com/atelierline/artmarket-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if buyer := middleware.BuyerIDFromContext(r.Context()); buyer != "" {
			payload["buyer_id"] = buyer
		}
		responses.WriteSuccess(w, payload)
	}
}
