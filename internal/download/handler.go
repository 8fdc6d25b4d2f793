package download

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photomaton/service/internal/baseurl"
	"github.com/photomaton/service/internal/response"
	"github.com/photomaton/service/internal/session"
)

//go:embed templates/gallery.html
var templatesFS embed.FS

var galleryTmpl = template.Must(template.ParseFS(templatesFS, "templates/gallery.html"))

// Handler serves the gallery page and image downloads of a session.
type Handler struct {
	sessions *session.Service
	bundler  *Bundler
	resolver *baseurl.Resolver
}

// NewHandler creates a new download Handler.
func NewHandler(sessions *session.Service, bundler *Bundler, resolver *baseurl.Resolver) *Handler {
	return &Handler{sessions: sessions, bundler: bundler, resolver: resolver}
}

type galleryPhoto struct {
	Index       int
	ViewURL     string
	DownloadURL string
}

type galleryPage struct {
	ID      string
	PageURL string
	Photos  []galleryPhoto
}

// Gallery godoc
//
//	@Summary		Session gallery
//	@Description	HTML page listing every photo of the session with view and download links, a download-all link and a QR code of the page itself.
//	@Tags			downloads
//	@Produce		html
//	@Param			sessionId	path		string	true	"Session id"
//	@Success		200			{string}	string	"HTML page"
//	@Failure		404			{string}	string	"Session not found"
//	@Router			/download/{sessionId} [get]
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r, false)
	if !ok {
		return
	}

	page := galleryPage{ID: sess.ID, Photos: make([]galleryPhoto, 0, len(sess.Images))}
	for i, ref := range sess.Images {
		view := ref
		if !IsRemote(ref) {
			view = "/" + ref
		}
		page.Photos = append(page.Photos, galleryPhoto{
			Index:       i + 1,
			ViewURL:     view,
			DownloadURL: fmt.Sprintf("/download-photo/%s/%d", sess.ID, i+1),
		})
	}
	if base, err := h.resolver.Resolve(r); err == nil {
		page.PageURL = base + "/download/" + sess.ID
	} else {
		log.Printf("download: gallery %s rendered without qr: %v", sess.ID, err)
	}

	var buf bytes.Buffer
	if err := galleryTmpl.Execute(&buf, page); err != nil {
		log.Printf("download: render gallery %s: %v", sess.ID, err)
		response.Text(w, http.StatusInternalServerError, "No se pudo mostrar la galería")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Photo godoc
//
//	@Summary		Download one photo
//	@Description	Streams the photo at the 1-based index as an attachment.
//	@Tags			downloads
//	@Produce		octet-stream
//	@Param			sessionId	path		string	true	"Session id"
//	@Param			index		path		int		true	"1-based photo index"
//	@Success		200			{file}		file
//	@Failure		404			{object}	response.ErrorBody
//	@Failure		502			{object}	response.ErrorBody
//	@Router			/download-photo/{sessionId}/{index} [get]
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.NotFound(w, "photo not found")
		return
	}
	sess, ok := h.loadSession(w, r, true)
	if !ok {
		return
	}

	item, err := h.bundler.Single(r.Context(), sess, index)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "photo not found")
		case errors.Is(err, ErrUpstream):
			log.Printf("download: session %s photo %d: %v", sess.ID, index, err)
			response.BadGateway(w, "photo could not be retrieved")
		default:
			log.Printf("download: session %s photo %d: %v", sess.ID, index, err)
			response.InternalError(w, "photo could not be read")
		}
		return
	}
	defer item.Body.Close()

	w.Header().Set("Content-Type", item.ContentType)
	w.Header().Set("Content-Disposition", attachment(item.Name))
	if _, err := io.Copy(w, item.Body); err != nil {
		log.Printf("download: stream session %s photo %d: %v", sess.ID, index, err)
	}
}

// All godoc
//
//	@Summary		Download all photos
//	@Description	ZIP archive of every photo that could be read. Photos that fail are left out; the archive may be empty.
//	@Tags			downloads
//	@Produce		application/zip
//	@Param			sessionId	path		string	true	"Session id"
//	@Success		200			{file}		file
//	@Failure		404			{object}	response.ErrorBody
//	@Router			/download-all/{sessionId} [get]
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r, true)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment("fotos-"+sess.ID+".zip"))
	n, err := h.bundler.WriteZip(r.Context(), sess, w)
	if err != nil {
		// Headers are already sent; the client sees a truncated archive.
		log.Printf("download: zip session %s: %v", sess.ID, err)
		return
	}
	log.Printf("download: zip session %s: %d of %d item(s)", sess.ID, n, len(sess.Images))
}

// loadSession writes the not-found response itself, as JSON or plain text.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, asJSON bool) (*session.Session, bool) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err == nil {
		return sess, true
	}
	if h.sessions.IsNotFound(err) {
		if asJSON {
			response.NotFound(w, "session not found")
		} else {
			response.Text(w, http.StatusNotFound, "Sesión no encontrada")
		}
		return nil, false
	}
	log.Printf("download: load session: %v", err)
	if asJSON {
		response.InternalError(w, "session could not be read")
	} else {
		response.Text(w, http.StatusInternalServerError, "No se pudo leer la sesión")
	}
	return nil, false
}

func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
