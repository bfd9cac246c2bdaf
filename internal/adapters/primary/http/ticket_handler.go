package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-insight/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)
	r.Get("/search", h.HandleSearchTickets)

	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/", h.HandleUpdateTicket)
		r.Delete("/", h.HandleDeleteTicket)
		r.Post("/resolve", h.HandleResolveTicket)
	})
}

// --- Request DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket.
// Category and priority are assigned by the classifier.
type CreateTicketRequest struct {
	Title         string  `json:"title" validate:"required,max=255"`
	Description   string  `json:"description" validate:"max=4000"`
	ReporterEmail *string `json:"reporter_email" validate:"omitempty,email,max=255"`
}

// UpdateTicketRequest defines the expected JSON body for patching a ticket.
// Absent fields are left unchanged; reporter_email may be set to null.
type UpdateTicketRequest struct {
	Title         *string        `json:"title" validate:"omitempty,max=255"`
	Description   *string        `json:"description" validate:"omitempty,max=4000"`
	Category      *string        `json:"category" validate:"omitempty,oneof=bug feature_request support billing other"`
	Priority      *string        `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        *string        `json:"status" validate:"omitempty,oneof=open resolved"`
	ReporterEmail OptionalString `json:"reporter_email" validate:"-"`
}

// OptionalString records whether a JSON field was present and whether it
// was null, which a plain *string cannot distinguish.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Validate checks the body against the field rules.
func (r *UpdateTicketRequest) Validate() error {
	v := validation.NewValidator().Struct(r)
	if r.ReporterEmail.Value != nil && *r.ReporterEmail.Value != "" {
		v.Var("reporter_email", *r.ReporterEmail.Value, "email,max=255")
	}
	return v.Err()
}

// Patch converts the body to a domain patch. A null or empty reporter_email
// clears the contact.
func (r *UpdateTicketRequest) Patch() domain.TicketPatch {
	patch := domain.TicketPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Category != nil {
		category := domain.Category(*r.Category)
		patch.Category = &category
	}
	if r.Priority != nil {
		priority := domain.Priority(*r.Priority)
		patch.Priority = &priority
	}
	if r.Status != nil {
		status := domain.Status(*r.Status)
		patch.Status = &status
	}
	if r.ReporterEmail.Set {
		if r.ReporterEmail.Value == nil || *r.ReporterEmail.Value == "" {
			patch.ClearReporterEmail = true
		} else {
			patch.ReporterEmail = r.ReporterEmail.Value
		}
	}
	return patch
}

func toTicketDTOs(tickets []*domain.Ticket) []domain.TicketSnapshot {
	response := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, domain.NewTicketSnapshot(ticket))
	}
	return response
}

// --- Handlers ---

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := validation.NewValidator().Struct(req).Err(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), ports.CreateTicketParams{
		Title:         req.Title,
		Description:   req.Description,
		ReporterEmail: req.ReporterEmail,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket created",
		"ticket_id", ticket.ID,
		"category", ticket.Category,
		"priority", ticket.Priority,
	)

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	v := validation.NewValidator()
	category, status := parseTicketFilters(r, v)
	if err := v.Err(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	tickets, err := h.ticketService.ListTickets(r.Context(), ports.ListTicketsParams{
		Category: category,
		Status:   status,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toTicketDTOs(tickets))
}

// HandleSearchTickets handles GET /tickets/search
func (h *TicketHandler) HandleSearchTickets(w http.ResponseWriter, r *http.Request) {
	v := validation.NewValidator()
	pagination := v.ParsePagination(r)
	category, status := parseTicketFilters(r, v)

	var priority *domain.Priority
	if raw := validation.ParseStringQueryParam(r, "priority"); raw != nil {
		v.OneOf("priority", *raw, enumStrings(domain.Priorities))
		p := domain.Priority(*raw)
		priority = &p
	}

	if err := v.Err(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	page, err := h.ticketService.SearchTickets(r.Context(), ports.SearchTicketsParams{
		Search:    r.URL.Query().Get("search"),
		Category:  category,
		Status:    status,
		Priority:  priority,
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Offset:    pagination.Offset,
		Limit:     pagination.Limit,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toTicketDTOs(page.Items), pagination.Limit, pagination.Offset, page.Total)
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteOK(w, domain.NewTicketSnapshot(ticket))
}

// HandleUpdateTicket handles PATCH /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeJSON[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.UpdateTicket(r.Context(), ticketID, req.Patch())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket updated",
		"ticket_id", ticketID,
		"status", ticket.Status,
	)

	WriteOK(w, domain.NewTicketSnapshot(ticket))
}

// HandleDeleteTicket handles DELETE /tickets/{ticketID}
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	deleted, err := h.ticketService.DeleteTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if !deleted {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		})
		return
	}

	h.logger.InfoContext(r.Context(), "ticket deleted", "ticket_id", ticketID)

	WriteMessage(w, "Ticket deleted successfully")
}

// HandleResolveTicket handles POST /tickets/{ticketID}/resolve
func (h *TicketHandler) HandleResolveTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.ResolveTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ticket resolved", "ticket_id", ticketID)

	WriteOK(w, domain.NewTicketSnapshot(ticket))
}

// --- Helpers ---

// parseTicketFilters reads the category and status filters. Values outside
// the enumerations are recorded on v.
func parseTicketFilters(r *http.Request, v *validation.Validator) (*domain.Category, *domain.Status) {
	var category *domain.Category
	if raw := validation.ParseStringQueryParam(r, "category"); raw != nil {
		v.OneOf("category", *raw, enumStrings(domain.Categories))
		c := domain.Category(*raw)
		category = &c
	}

	var status *domain.Status
	if raw := validation.ParseStringQueryParam(r, "status"); raw != nil {
		v.OneOf("status", *raw, enumStrings(domain.Statuses))
		s := domain.Status(*raw)
		status = &s
	}

	return category, status
}

// parseIDParam extracts and validates a positive integer URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		v := validation.NewValidator()
		v.Custom(name, false, "Must be a positive integer")
		return 0, v.Errors()
	}
	return id, nil
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = string(value)
	}
	return out
}
