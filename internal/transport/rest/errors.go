package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KotFed0t/portfolio_tracker/internal/importer/normalizer"
	"github.com/KotFed0t/portfolio_tracker/internal/model/httpModel"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
)

const internalErrMsg = "internal server error"

// writeError maps service errors to status codes. Anything unknown is logged
// and hidden behind a generic message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, internalErrMsg

	switch {
	case errors.Is(err, normalizer.ErrUnrecognizedFormat),
		errors.Is(err, normalizer.ErrMalformedInput),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrDefaultPortfolio):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrExportDisabled):
		status, msg = http.StatusNotImplemented, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	default:
		slog.Error("request failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
	}

	writeJSON(w, status, httpModel.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
