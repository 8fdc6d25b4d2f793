package qrcode

import (
	"log"
	"net/http"
	"strconv"

	"github.com/photomaton/service/internal/response"
)

// Handler serves rendered QR codes.
type Handler struct {
	fetcher *Fetcher
}

// NewHandler creates a new qrcode Handler.
func NewHandler(fetcher *Fetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// QR godoc
//
//	@Summary		Render a QR code
//	@Description	Renders data as a QR image through the first provider that answers. Invalid sizes fall back to 240x240.
//	@Tags			qr
//	@Produce		png
//	@Param			data	query		string	true	"Text to encode"
//	@Param			size	query		string	false	"WxH in pixels"	default(240x240)
//	@Success		200		{file}		file
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		502		{object}	response.ErrorBody
//	@Router			/api/qr [get]
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	data := r.URL.Query().Get("data")
	if data == "" {
		response.BadRequest(w, "data is required")
		return
	}

	img, err := h.fetcher.Fetch(r.Context(), data, r.URL.Query().Get("size"))
	if err != nil {
		log.Printf("qrcode: %v", err)
		response.BadGateway(w, "qr code could not be generated")
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Bytes)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(img.Bytes)
}
