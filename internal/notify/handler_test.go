package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photomaton/service/internal/baseurl"
	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/session"
)

type recordingSender struct {
	to, link string
	err      error
}

func (s *recordingSender) Name() string { return "recording" }

func (s *recordingSender) Send(_ context.Context, destination, link string) error {
	s.to, s.link = destination, link
	return s.err
}

func newSendLinkHandler(t *testing.T, sender Sender) (*Handler, string) {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	require.NoError(t, err)
	id, err := store.Create(context.Background(), []string{"uploads/a.png"})
	require.NoError(t, err)

	svc := session.NewService(store, nil, "uploads", metrics.New())
	return NewHandler(svc, baseurl.NewResolver("https://fotos.example.com", ""), sender, metrics.New()), id
}

func sendLink(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.SendLink(rec, httptest.NewRequest(http.MethodPost, "/api/send-link", strings.NewReader(body)))
	return rec
}

func TestSendLink(t *testing.T) {
	s := &recordingSender{}
	h, id := newSendLinkHandler(t, s)

	rec := sendLink(h, fmt.Sprintf(`{"sessionId":%q,"phone":"34 600-111-222"}`, id))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"sent":true}`, rec.Body.String())
	require.Equal(t, "+34600111222", s.to)
	require.Equal(t, "https://fotos.example.com/download/"+id, s.link)
}

func TestSendLinkValidation(t *testing.T) {
	s := &recordingSender{}
	h, id := newSendLinkHandler(t, s)

	for _, body := range []string{
		`not json`,
		fmt.Sprintf(`{"sessionId":%q}`, id),
		fmt.Sprintf(`{"sessionId":%q,"phone":"12345"}`, id),
		fmt.Sprintf(`{"sessionId":%q,"phone":"+0600111222"}`, id),
		fmt.Sprintf(`{"sessionId":%q,"phone":"call me"}`, id),
	} {
		rec := sendLink(h, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Empty(t, s.to)
}

func TestSendLinkUnknownSession(t *testing.T) {
	h, _ := newSendLinkHandler(t, &recordingSender{})

	rec := sendLink(h, `{"sessionId":"3f2504e0-4f89-41d3-9a0c-0305e82c3301","phone":"+34600111222"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendLinkDeliveryFailure(t *testing.T) {
	s := &recordingSender{err: fmt.Errorf("%w: Status: 400 - invalid To", ErrDeliveryFailed)}
	h, id := newSendLinkHandler(t, s)

	rec := sendLink(h, fmt.Sprintf(`{"sessionId":%q,"phone":"+34600111222"}`, id))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"error":"message could not be delivered"}`, rec.Body.String())
}
