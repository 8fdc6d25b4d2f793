package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/photomaton/service/internal/baseurl"
	"github.com/photomaton/service/internal/response"
	"github.com/photomaton/service/internal/storage"
)

// Handler holds HTTP handlers for session creation.
type Handler struct {
	svc      *Service
	resolver *baseurl.Resolver
}

// NewHandler creates a new session Handler.
func NewHandler(svc *Service, resolver *baseurl.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

// CreateSessionRequest is the body of POST /api/create-session.
type CreateSessionRequest struct {
	Images  json.RawMessage `json:"images" swaggertype:"array,string"`
	Publish bool            `json:"publish"`
}

// CreateSessionResponse carries the shareable gallery link.
type CreateSessionResponse struct {
	DownloadURL string `json:"downloadUrl" example:"https://fotos.example.com/download/3f2504e0-4f89-41d3-9a0c-0305e82c3301"`
}

// CreateSession godoc
//
//	@Summary		Create a photo session
//	@Description	Stores every submitted data URL through the configured backend and records them, in order, as a new session.
//	@Description	A malformed image rejects the whole request before anything is stored.
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSessionRequest	true	"Captured images as data URLs"
//	@Success		200		{object}	CreateSessionResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		413		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/api/create-session [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		response.BadRequest(w, "invalid request body")
		return
	}

	images, err := decodeImages(req.Images)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.svc.Validate(images); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	base, err := h.resolver.Resolve(r)
	if err != nil {
		log.Printf("session: resolve base url: %v", err)
		response.InternalError(w, "public base url could not be resolved")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), images, req.Publish)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) || errors.Is(err, storage.ErrInvalidImageFormat) {
			response.BadRequest(w, err.Error())
			return
		}
		log.Printf("session: create: %v", err)
		response.InternalError(w, "images could not be stored")
		return
	}

	response.OK(w, CreateSessionResponse{DownloadURL: base + "/download/" + sess.ID})
}

// decodeImages accepts only a non-empty JSON array of strings.
func decodeImages(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errImagesRequired
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, errImagesNotList
	}
	if len(images) == 0 {
		return nil, errImagesRequired
	}
	return images, nil
}

var (
	errImagesRequired = errors.New("images must be a non-empty list")
	errImagesNotList  = errors.New("images must be a list of data URLs")
)
