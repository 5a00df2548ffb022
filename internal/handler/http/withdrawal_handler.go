package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"payout/internal/domain"
	"payout/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type WithdrawalHandler struct {
	service   port.WithdrawalService
	validate  *validator.Validate
	authToken string
	logger    *zap.Logger
}

func NewWithdrawalHandler(service port.WithdrawalService, authToken string, logger *zap.Logger) *WithdrawalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &WithdrawalHandler{
		service:   service,
		validate:  validate,
		authToken: authToken,
		logger:    logger,
	}
}

// Routes mounts the withdrawal endpoints behind bearer authentication.
func (h *WithdrawalHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.authenticate)

	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Get("/position", h.Position)
			r.Post("/examine", h.Examine)
			r.Post("/transitions", h.Transition)
		})
	})
	return r
}

// createRequest accepts sum as a JSON number or a numeric string. Field
// rules are enforced by the service so they can be reported together.
type createRequest struct {
	MemberID          int64       `json:"member_id"`
	WithdrawAddressID int64       `json:"withdraw_address_id"`
	Sum               json.Number `json:"sum"`
	Password          string      `json:"password" validate:"max=128"`
}

func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		h.writeValidation(w, r, err)
		return
	}

	req := &domain.WithdrawalReq{
		MemberID:          body.MemberID,
		WithdrawAddressID: body.WithdrawAddressID,
		Password:          body.Password,
	}
	sum, err := parseSum(body.Sum.String())
	if err != nil {
		h.writeError(w, r, http.StatusUnprocessableEntity, "validation failed", []fieldView{{Field: "sum", Rule: "numeric"}})
		return
	}
	req.RequestedSum = sum

	created, err := h.service.CreateWithdrawal(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newWithdrawalView(created))
}

func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	found, err := h.service.GetWithdrawal(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newWithdrawalView(found))
}

func (h *WithdrawalHandler) Position(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	pos, err := h.service.PositionInQueue(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"id": id, "position": pos})
}

func (h *WithdrawalHandler) Examine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Examine(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *WithdrawalHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req domain.TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeValidation(w, r, err)
		return
	}

	updated, err := h.service.Transition(r.Context(), id, &req)
	if err != nil && updated != nil && domain.IsTransient(err) {
		// the state change is committed; only a post-commit step failed
		h.logger.Warn("transition committed with follow-up failure",
			zap.Int64("id", id),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		view := newWithdrawalView(updated)
		view.Warning = err.Error()
		h.writeJSON(w, http.StatusOK, view)
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newWithdrawalView(updated))
}

func (h *WithdrawalHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid withdrawal id", nil)
		return 0, false
	}
	return id, true
}

// writeValidation reports validator failures the way the service reports its
// own field errors.
func (h *WithdrawalHandler) writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		h.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}
	fields := make([]fieldView, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fieldView{Field: fe.Field(), Rule: fe.Tag()})
	}
	h.writeError(w, r, http.StatusUnprocessableEntity, "validation failed", fields)
}

func (h *WithdrawalHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, r, http.StatusUnprocessableEntity, "validation failed", newFieldViews(verr.Fields))
	case domain.IsNotFound(err):
		h.writeError(w, r, http.StatusNotFound, err.Error(), nil)
	case domain.IsConflict(err):
		h.writeError(w, r, http.StatusConflict, err.Error(), nil)
	case domain.IsTransient(err):
		h.logger.Warn("transient failure", zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		h.writeError(w, r, http.StatusServiceUnavailable, "temporarily unavailable, retry later", nil)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		h.writeError(w, r, http.StatusInternalServerError, "internal error", nil)
	}
}
