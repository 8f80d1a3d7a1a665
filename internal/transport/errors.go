package transport

import (
	"encoding/json"
	"net/http"

	"github.com/roach88/shelf/internal/shop"
)

// CodeBadRequest marks malformed requests rejected before reaching the shop.
const CodeBadRequest = "BadRequest"

// Response is the envelope of every API response.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var kindStatus = map[shop.Kind]int{
	shop.KindNotFound:            http.StatusNotFound,
	shop.KindAccessDenied:        http.StatusForbidden,
	shop.KindAlreadyExists:       http.StatusConflict,
	shop.KindAlreadyInitialized:  http.StatusConflict,
	shop.KindInvalidID:           http.StatusBadRequest,
	shop.KindEmptyName:           http.StatusBadRequest,
	shop.KindInvalidPrice:        http.StatusBadRequest,
	shop.KindOffsetOutOfBounds:   http.StatusBadRequest,
	shop.KindInvalidRange:        http.StatusBadRequest,
	shop.KindInvalidPrincipal:    http.StatusBadRequest,
	shop.KindInsufficientPayment: http.StatusUnprocessableEntity,
	shop.KindOutOfStock:          http.StatusUnprocessableEntity,
	shop.KindNothingToWithdraw:   http.StatusUnprocessableEntity,
	shop.KindTransferFailed:      http.StatusBadGateway,
	shop.KindArithmeticOverflow:  http.StatusInternalServerError,
	shop.KindVersionMismatch:     http.StatusPreconditionFailed,
	shop.KindInternal:            http.StatusInternalServerError,
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(k shop.Kind) int {
	if st, ok := kindStatus[k]; ok {
		return st
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Status: "ok", Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Status: "error", Error: &ResponseError{Code: code, Message: message}})
}

// writeShopError reports a failed shop operation.
func writeShopError(w http.ResponseWriter, err error) {
	k := shop.KindOf(err)
	writeError(w, StatusFor(k), string(k), err.Error())
}
