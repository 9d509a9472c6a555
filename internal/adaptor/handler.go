package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth  *AuthHandler
	Visit *VisitHandler
	Store *StoreHandler
	Cron  *CronHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:  NewAuthHandler(service.Auth, log),
		Visit: NewVisitHandler(service.Visit, log),
		Store: NewStoreHandler(service.Store, service.Visit, log),
		Cron:  NewCronHandler(service.Sweep, log),
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// identity returns the caller set by the session middleware, writing a 401 when absent.
func identity(w http.ResponseWriter, r *http.Request) (utils.Identity, bool) {
	id, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return id, ok
}

// handleServiceError maps a service error onto the response envelope.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	kind := apperr.KindOf(err)
	msg := apperr.MessageOf(err)
	details := apperr.DetailsOf(err)
	var errs any
	if len(details) > 0 {
		errs = details
	}

	switch kind {
	case apperr.KindValidation, apperr.KindInvalidState:
		log.Warn(operation+" rejected", zap.String("kind", string(kind)), zap.Error(err))
		utils.ResponseBadRequest(w, msg, errs)

	case apperr.KindNotFound:
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, msg)

	case apperr.KindUnauthorized:
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, msg)

	case apperr.KindForbidden:
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, msg)

	case apperr.KindConflict:
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, msg, errs)

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
