package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cardiocheck/db"
	"cardiocheck/inference"
	"cardiocheck/logging"
)

// Predictor 推理接口
type Predictor interface {
	Predict(ctx context.Context, record inference.PatientRecord) (inference.PredictionResult, error)
}

// ModelStatus 模型状态接口
type ModelStatus interface {
	IsReady() bool
	Status() inference.Status
}

// LoadHistory 模型加载记录接口
type LoadHistory interface {
	RecentModelLoads(ctx context.Context, limit int) ([]db.ModelLoad, error)
}

// Handlers 处理器依赖
type Handlers struct {
	predictor Predictor
	status    ModelStatus
	history   LoadHistory
	staticDir string
	logger    *zap.Logger
}

// NewHandlers 创建处理器；history 可以为 nil
func NewHandlers(predictor Predictor, status ModelStatus, history LoadHistory, staticDir string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		predictor: predictor,
		status:    status,
		history:   history,
		staticDir: staticDir,
		logger:    logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/ready", h.handleReady)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("GET /api/model/loads", h.handleModelLoads)
	if h.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
		mux.HandleFunc("GET /{$}", h.handleIndex)
	}
}

// predictPayload 请求体；指针字段用于区分缺失与零值
type predictPayload struct {
	Age      *int     `json:"age" validate:"required"`
	Sex      *string  `json:"sex" validate:"required"`
	CP       *string  `json:"cp" validate:"required"`
	Trestbps *float64 `json:"trestbps" validate:"required"`
	Chol     *float64 `json:"chol" validate:"required"`
	FBS      *string  `json:"fbs" validate:"required"`
	Restecg  *string  `json:"restecg" validate:"required"`
	Thalch   *float64 `json:"thalch" validate:"required"`
	Exang    *string  `json:"exang" validate:"required"`
	Oldpeak  *float64 `json:"oldpeak" validate:"required"`
	Slope    *string  `json:"slope" validate:"required"`
	CA       *float64 `json:"ca" validate:"required"`
	Thal     *string  `json:"thal" validate:"required"`
}

func (p predictPayload) record() inference.PatientRecord {
	return inference.PatientRecord{
		Age:      *p.Age,
		Sex:      *p.Sex,
		CP:       *p.CP,
		Trestbps: *p.Trestbps,
		Chol:     *p.Chol,
		FBS:      *p.FBS,
		Restecg:  *p.Restecg,
		Thalch:   *p.Thalch,
		Exang:    *p.Exang,
		Oldpeak:  *p.Oldpeak,
		Slope:    *p.Slope,
		CA:       *p.CA,
		Thal:     *p.Thal,
	}
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

func decodePayload(r *http.Request) (inference.PatientRecord, error) {
	var payload predictPayload
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&payload); err != nil {
		return inference.PatientRecord{}, err
	}
	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return inference.PatientRecord{}, err
		}
		return inference.PatientRecord{}, errors.New("request body must hold a single JSON object")
	}
	if err := payloadValidator.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return inference.PatientRecord{}, errors.New("missing fields: " + strings.Join(missing, ", "))
		}
		return inference.PatientRecord{}, err
	}
	return payload.record(), nil
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)

	record, err := decodePayload(r)
	if err != nil {
		logger.Info("rejected payload", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), GetRequestID(r.Context()))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error(), GetRequestID(r.Context()))
		return
	}

	result, err := h.predictor.Predict(r.Context(), record)
	if err != nil {
		kind := inference.Classify(err)
		status := statusFor(kind)
		message := err.Error()
		var perr *inference.Error
		if errors.As(err, &perr) {
			message = perr.Message()
		}
		if status >= http.StatusInternalServerError {
			logger.Error("prediction failed", zap.String("kind", string(kind)), zap.Error(err))
		} else {
			logger.Info("prediction rejected", zap.String("kind", string(kind)), zap.Error(err))
		}
		writeError(w, status, string(kind), message, GetRequestID(r.Context()))
		return
	}

	logger.Debug("prediction", zap.String("label", result.Label), zap.String("probability", result.Probability))
	respondJSON(w, http.StatusOK, result)
}

// statusFor 错误类型到HTTP状态码的映射
func statusFor(kind inference.Kind) int {
	switch kind {
	case inference.KindModelUnavailable:
		return http.StatusServiceUnavailable
	case inference.KindInvalidRecord:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": h.status.IsReady(),
	})
}

func (h *Handlers) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.status.IsReady() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ready": false,
			"error": "model not loaded",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
}

func (h *Handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status.Status())
}

func (h *Handlers) handleModelLoads(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", GetRequestID(r.Context()))
			return
		}
		if l > 500 {
			l = 500
		}
		limit = l
	}

	loads := make([]db.ModelLoad, 0)
	if h.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		rows, err := h.history.RecentModelLoads(ctx, limit)
		if err != nil {
			logging.FromContext(r.Context(), h.logger).Error("query model loads", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "journal_unavailable", err.Error(), GetRequestID(r.Context()))
			return
		}
		loads = rows
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"loads": loads})
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

// errorResponse 错误响应体
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, requestID ...string) {
	resp := errorResponse{Error: code, Message: message}
	if len(requestID) > 0 {
		resp.RequestID = requestID[0]
	}
	respondJSON(w, status, resp)
}
