package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/photomaton/service/internal/baseurl"
	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/response"
	"github.com/photomaton/service/internal/session"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// Handler delivers gallery links to the visitor's phone.
type Handler struct {
	sessions *session.Service
	resolver *baseurl.Resolver
	sender   Sender
	metrics  *metrics.Metrics
}

// NewHandler creates a new notify Handler.
func NewHandler(sessions *session.Service, resolver *baseurl.Resolver, sender Sender, m *metrics.Metrics) *Handler {
	return &Handler{sessions: sessions, resolver: resolver, sender: sender, metrics: m}
}

// SendLinkRequest is the body of POST /api/send-link.
type SendLinkRequest struct {
	SessionID string `json:"sessionId" example:"3f2504e0-4f89-41d3-9a0c-0305e82c3301"`
	Phone     string `json:"phone" example:"+34600111222"`
}

// SendLinkResponse confirms the message was accepted by the provider.
type SendLinkResponse struct {
	Sent bool `json:"sent" example:"true"`
}

// SendLink godoc
//
//	@Summary		Send the gallery link to a phone
//	@Description	Sends the session's gallery link by SMS, or WhatsApp when the sender number is a WhatsApp one.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SendLinkRequest	true	"Session and destination"
//	@Success		200		{object}	SendLinkResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Failure		502		{object}	response.ErrorBody
//	@Router			/api/send-link [post]
func (h *Handler) SendLink(w http.ResponseWriter, r *http.Request) {
	var req SendLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	phone := normalizePhone(req.Phone)
	if !phoneRegex.MatchString(phone) {
		response.BadRequest(w, "phone must be an international number")
		return
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	sess, err := h.sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		if h.sessions.IsNotFound(err) {
			response.NotFound(w, "session not found")
			return
		}
		log.Printf("notify: load session: %v", err)
		response.InternalError(w, "session could not be read")
		return
	}

	base, err := h.resolver.Resolve(r)
	if err != nil {
		log.Printf("notify: resolve base url: %v", err)
		response.InternalError(w, "public base url could not be resolved")
		return
	}

	err = h.sender.Send(r.Context(), phone, base+"/download/"+sess.ID)
	h.metrics.LinkDeliveries.WithLabelValues(h.sender.Name(), metrics.Outcome(err)).Inc()
	if err != nil {
		log.Printf("notify: send session %s via %s: %v", sess.ID, h.sender.Name(), err)
		if errors.Is(err, ErrDeliveryFailed) {
			response.BadGateway(w, ErrDeliveryFailed.Error())
			return
		}
		response.BadGateway(w, "message could not be sent")
		return
	}

	response.OK(w, SendLinkResponse{Sent: true})
}

// normalizePhone drops the spaces, dashes and parentheses people type.
func normalizePhone(p string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(p))
}
