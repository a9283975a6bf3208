package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/wonny/clusterfolio/internal/contracts"
	"github.com/wonny/clusterfolio/pkg/logger"
)

// maxBodyBytes construct 요청 본문 상한
const maxBodyBytes = 8 << 20

// DefaultMaxStocks 요청당 종목 수 기본 상한 (상관 행렬/그래프가 n² 메모리)
const DefaultMaxStocks = 2000

// PortfolioHandler handles portfolio construction endpoints
// ⭐ SSOT: 포트폴리오 API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	constructor contracts.PortfolioConstructor
	store       contracts.ResultStore
	defaults    contracts.ConstructParams
	validate    *validator.Validate
	maxStocks   int
	logger      *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
// defaults 는 요청에서 생략된 파라미터에 사용 (활성 전략 프로필)
func NewPortfolioHandler(
	constructor contracts.PortfolioConstructor,
	store contracts.ResultStore,
	defaults contracts.ConstructParams,
	log *logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		constructor: constructor,
		store:       store,
		defaults:    defaults,
		validate:    validator.New(),
		maxStocks:   DefaultMaxStocks,
		logger:      log,
	}
}

// WithMaxStocks overrides the distinct stock limit per request (n <= 0 은 무시)
func (h *PortfolioHandler) WithMaxStocks(n int) *PortfolioHandler {
	if n > 0 {
		h.maxStocks = n
	}
	return h
}

// ConstructRequest represents a construction request
// 숫자 파라미터는 포인터: 생략 시 기본값, 명시적 0 은 그대로 전달
type ConstructRequest struct {
	Tickers             []string  `json:"tickers" validate:"max=1000000,dive,required,max=32"`
	Values              []float64 `json:"values" validate:"max=1000000"`
	NTradingDaysBack    *int      `json:"n_trading_days_back"`
	NBestPerforming     *int      `json:"n_best_performing"`
	ResolutionParameter *float64  `json:"resolution_parameter"`
	CorrelationMeasure  string    `json:"correlation_measure" validate:"max=32"`
	NumberOfIterations  *int      `json:"number_of_iterations"`
	QualityFunction     string    `json:"quality_function" validate:"max=32"`
}

// Params merges the request over defaults
func (r *ConstructRequest) Params(defaults contracts.ConstructParams) contracts.ConstructParams {
	p := defaults
	if r.NTradingDaysBack != nil {
		p.NTradingDaysBack = *r.NTradingDaysBack
	}
	if r.NBestPerforming != nil {
		p.NBestPerforming = *r.NBestPerforming
	}
	if r.ResolutionParameter != nil {
		p.ResolutionParameter = *r.ResolutionParameter
	}
	if r.CorrelationMeasure != "" {
		p.CorrelationMeasure = contracts.CorrelationMeasure(r.CorrelationMeasure)
	}
	if r.NumberOfIterations != nil {
		p.NumberOfIterations = *r.NumberOfIterations
	}
	if r.QualityFunction != "" {
		p.QualityFunction = contracts.QualityFunction(r.QualityFunction)
	}
	return p
}

// Construct runs the pipeline on the posted panel
// POST /api/portfolio/construct
func (h *PortfolioHandler) Construct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ConstructRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, CodeInvalidRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		RespondError(w, http.StatusBadRequest, CodeInvalidRequest, describeValidation(err))
		return
	}

	// 행렬 할당 전에 거부: 초과 시 OOM 으로 프로세스가 죽음
	if n := contracts.NewTickerSet(req.Tickers).Len(); n > h.maxStocks {
		RespondError(w, http.StatusRequestEntityTooLarge, CodeTooManyStocks,
			fmt.Sprintf("%d distinct stocks exceeds the limit of %d", n, h.maxStocks))
		return
	}

	params := req.Params(h.defaults)
	panel := &contracts.Panel{Tickers: req.Tickers, Values: req.Values}

	result, err := h.constructor.Construct(ctx, panel, params)
	if err != nil {
		h.respondConstructError(w, err)
		return
	}

	if err := h.store.SaveRun(ctx, result); err != nil {
		h.logger.WithError(err).Warn("Failed to cache constructed portfolio")
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"stocks":      result.NumStocks,
		"communities": result.NumCommunities,
	}).Info("Portfolio constructed via API")

	respondData(w, http.StatusOK, result)
}

// GetLatest returns the most recent scheduled result
// GET /api/portfolio/latest
func (h *PortfolioHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, found, err := h.store.Latest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest portfolio")
		RespondError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve latest portfolio")
		return
	}
	if !found {
		RespondError(w, http.StatusNotFound, CodeNotFound, "No portfolio has been constructed yet")
		return
	}

	respondData(w, http.StatusOK, result)
}

// GetRun returns a recent result by run id
// GET /api/portfolio/runs/{run_id}
func (h *PortfolioHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	result, ok := h.findRun(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, result)
}

// GetCommunity returns one community record of a run
// GET /api/portfolio/runs/{run_id}/communities/{index}
func (h *PortfolioHandler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		RespondError(w, http.StatusBadRequest, CodeInvalidRequest, "Community index must be an integer")
		return
	}

	result, ok := h.findRun(w, r)
	if !ok {
		return
	}

	p, found := result.GetPortfolio(index)
	if !found {
		RespondError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Run %s has no community %d", result.RunID, index))
		return
	}
	respondData(w, http.StatusOK, p)
}

// findRun loads the run named in the path, writing the error response when absent
func (h *PortfolioHandler) findRun(w http.ResponseWriter, r *http.Request) (*contracts.ConstructResult, bool) {
	runID := mux.Vars(r)["run_id"]

	result, found, err := h.store.ByRunID(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get portfolio run")
		RespondError(w, http.StatusInternalServerError, CodeInternal, "Failed to retrieve portfolio run")
		return nil, false
	}
	if !found {
		RespondError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Run %s not found", runID))
		return nil, false
	}
	return result, true
}

// respondConstructError maps pipeline errors onto HTTP status codes
func (h *PortfolioHandler) respondConstructError(w http.ResponseWriter, err error) {
	if kind := contracts.KindOf(err); kind != "" {
		RespondError(w, http.StatusBadRequest, string(kind), err.Error())
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		RespondError(w, http.StatusGatewayTimeout, CodeTimeout, "Construction timed out")
	case errors.Is(err, context.Canceled):
		// 클라이언트 연결 종료: 응답은 읽히지 않음
		RespondError(w, http.StatusServiceUnavailable, CodeTimeout, "Request canceled")
	default:
		h.logger.WithError(err).Error("Portfolio construction failed")
		RespondError(w, http.StatusInternalServerError, CodeInternal, "Portfolio construction failed")
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(msgs, "; ")
}
