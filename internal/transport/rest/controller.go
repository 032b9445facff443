package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/analysis"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/httpConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/httpModel"
	"github.com/KotFed0t/portfolio_tracker/internal/service/importService"
	"github.com/KotFed0t/portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PortfolioService interface {
	ListPortfolios(ctx context.Context, ownerID string) ([]model.Portfolio, error)
	CreatePortfolio(ctx context.Context, ownerID, name, description string) (model.Portfolio, error)
	GetPortfolio(ctx context.Context, ownerID, portfolioID string) (model.Portfolio, error)
	UpdatePortfolio(ctx context.Context, ownerID, portfolioID string, name, description *string) (model.Portfolio, error)
	DeletePortfolio(ctx context.Context, ownerID, portfolioID string) error
	GetValuation(ctx context.Context, ownerID, portfolioID string) (model.PortfolioValuation, error)
	AddPosition(ctx context.Context, ownerID, portfolioID string, input portfolioService.NewPosition) (model.ValuedPosition, error)
	UpdatePosition(ctx context.Context, ownerID, portfolioID, ticker string, changes model.PositionChanges) (model.ValuedPosition, error)
	DeletePosition(ctx context.Context, ownerID, portfolioID, ticker string) error
	GetPerformance(ctx context.Context, ownerID, portfolioID string) (analysis.Performance, error)
	GetDiversification(ctx context.Context, ownerID, portfolioID string) (analysis.Diversification, error)
	Export(ctx context.Context, ownerID, portfolioID string) (fileBytes []byte, filename string, err error)
	ShareExport(ctx context.Context, ownerID, portfolioID string) (string, error)
}

type ImportService interface {
	Import(ctx context.Context, ownerID, portfolioID string, upload importService.Upload) (model.ImportResult, error)
}

type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SearchByName(ctx context.Context, query string) ([]model.SearchResult, error)
}

type Controller struct {
	cfg              *config.Config
	portfolioService PortfolioService
	importService    ImportService
	quoteService     QuoteService
}

func NewController(cfg *config.Config, portfolioService PortfolioService, importService ImportService, quoteService QuoteService) *Controller {
	return &Controller{
		cfg:              cfg,
		portfolioService: portfolioService,
		importService:    importService,
		quoteService:     quoteService,
	}
}

func (ctrl *Controller) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ctrl *Controller) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	portfolios, err := ctrl.portfolioService.ListPortfolios(ctx, ownerID(ctx))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertPortfolios(portfolios))
}

func (ctrl *Controller) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req httpModel.CreatePortfolioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	portfolio, err := ctrl.portfolioService.CreatePortfolio(ctx, ownerID(ctx), req.Name, req.Description)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, httpConverter.ConvertPortfolio(portfolio))
}

func (ctrl *Controller) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	portfolio, err := ctrl.portfolioService.GetPortfolio(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertPortfolio(portfolio))
}

func (ctrl *Controller) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req httpModel.UpdatePortfolioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	portfolio, err := ctrl.portfolioService.UpdatePortfolio(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"), req.Name, req.Description)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertPortfolio(portfolio))
}

func (ctrl *Controller) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := ctrl.portfolioService.DeletePortfolio(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID")); err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) GetPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	valuation, err := ctrl.portfolioService.GetValuation(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertValuation(valuation))
}

func (ctrl *Controller) AddPosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req httpModel.AddPositionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	position, err := ctrl.portfolioService.AddPosition(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"), portfolioService.NewPosition{
		Ticker:        req.Ticker,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, httpConverter.ConvertPosition(position))
}

func (ctrl *Controller) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req httpModel.UpdatePositionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	position, err := ctrl.portfolioService.UpdatePosition(
		ctx,
		ownerID(ctx),
		chi.URLParam(r, "portfolioID"),
		chi.URLParam(r, "ticker"),
		httpConverter.ConvertPositionChanges(req),
	)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertPosition(position))
}

func (ctrl *Controller) DeletePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := ctrl.portfolioService.DeletePosition(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"), chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import accepts either a multipart form with a "file" field or the raw
// document as the request body. ?format= overrides kind detection.
func (ctrl *Controller) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rqID := utils.GetRequestIDFromCtx(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, ctrl.cfg.Import.MaxBytes)

	upload, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, httpModel.ErrorResponse{
				Error: fmt.Sprintf("upload is larger than %d bytes", ctrl.cfg.Import.MaxBytes),
			})
			return
		}
		slog.Warn("can't read upload", slog.String("rqID", rqID), slog.String("err", err.Error()))
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "can't read uploaded file"})
		return
	}

	result, err := ctrl.importService.Import(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"), upload)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertImportResult(result))
}

func readUpload(r *http.Request) (importService.Upload, error) {
	upload := importService.Upload{
		Hint:     r.URL.Query().Get("format"),
		Filename: r.URL.Query().Get("filename"),
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return importService.Upload{}, err
		}
		upload.ContentType = mediaType
		upload.Data = data
		return upload, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return importService.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return importService.Upload{}, err
	}

	upload.Filename = header.Filename
	upload.ContentType, _, _ = mime.ParseMediaType(header.Header.Get("Content-Type"))
	upload.Data = data
	return upload, nil
}

func (ctrl *Controller) GetPerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	performance, err := ctrl.portfolioService.GetPerformance(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertPerformance(performance))
}

func (ctrl *Controller) GetDiversification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	diversification, err := ctrl.portfolioService.GetDiversification(ctx, ownerID(ctx), chi.URLParam(r, "portfolioID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertDiversification(diversification))
}

func (ctrl *Controller) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	portfolioID := chi.URLParam(r, "portfolioID")

	if r.URL.Query().Get("share") == "true" {
		link, err := ctrl.portfolioService.ShareExport(ctx, ownerID(ctx), portfolioID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, httpModel.ShareLink{Link: link})
		return
	}

	fileBytes, filename, err := ctrl.portfolioService.Export(ctx, ownerID(ctx), portfolioID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fileBytes)
}

func (ctrl *Controller) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	quote, err := ctrl.quoteService.GetQuote(ctx, chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertQuote(quote))
}

func (ctrl *Controller) SearchQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := ctrl.quoteService.SearchByName(ctx, r.URL.Query().Get("q"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, httpConverter.ConvertSearchResults(results))
}

// ownerID is always set behind the auth middleware.
func ownerID(ctx context.Context) string {
	id, _ := utils.GetOwnerIDFromCtx(ctx)
	return id
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, httpModel.ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
