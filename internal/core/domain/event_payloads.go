package domain

import "time"

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	Status        string  `json:"status"`
	ReporterEmail *string `json:"reporter_email"`
	CreatedAt     string  `json:"created_at"`
	ResolvedAt    *string `json:"resolved_at"`
}

// APIRequestSnapshot matches the API response shape for request records.
type APIRequestSnapshot struct {
	ID           int64   `json:"id"`
	Method       string  `json:"method"`
	Path         string  `json:"path"`
	ResponseCode int     `json:"response_code"`
	ResponseTime float64 `json:"response_time"`
	UserAgent    *string `json:"user_agent"`
	IPAddress    *string `json:"ip_address"`
	CreatedAt    string  `json:"created_at"`
}

// DeletedTicketPayload is sent when a ticket is removed.
type DeletedTicketPayload struct {
	ID int64 `json:"id"`
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	var resolvedAt *string
	if ticket.ResolvedAt != nil {
		value := ticket.ResolvedAt.UTC().Format(time.RFC3339Nano)
		resolvedAt = &value
	}

	return TicketSnapshot{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Category:      string(ticket.Category),
		Priority:      string(ticket.Priority),
		Status:        string(ticket.Status),
		ReporterEmail: ticket.ReporterEmail,
		CreatedAt:     ticket.CreatedAt.UTC().Format(time.RFC3339Nano),
		ResolvedAt:    resolvedAt,
	}
}

// NewAPIRequestSnapshot builds a request snapshot from a domain record.
func NewAPIRequestSnapshot(req *APIRequest) APIRequestSnapshot {
	return APIRequestSnapshot{
		ID:           req.ID,
		Method:       req.Method,
		Path:         req.Path,
		ResponseCode: req.ResponseCode,
		ResponseTime: req.ResponseTime,
		UserAgent:    req.UserAgent,
		IPAddress:    req.IPAddress,
		CreatedAt:    req.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
