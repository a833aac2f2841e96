package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fadedwholesale/wholesale-service/internal/application/commands"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/response"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type ApplicationHandler struct {
	submit *commands.SubmitApplicationHandler
	log    *logger.Logger
}

func NewApplicationHandler(submit *commands.SubmitApplicationHandler, log *logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		submit: submit,
		log:    log,
	}
}

func (h *ApplicationHandler) HandleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var cmd commands.SubmitApplicationCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body", err.Error())
			return
		}

		resp, err := h.submit.Handle(r.Context(), cmd)
		if err != nil {
			h.log.Warn("Application submission rejected",
				"business_name", cmd.BusinessName,
				"error", err.Error(),
			)
			response.WriteDomainError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.Success(resp))
	}
}
