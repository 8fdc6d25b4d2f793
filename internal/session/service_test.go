package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/storage"
)

// fakeBackend records every stored data URL and returns sequential refs.
type fakeBackend struct {
	stored  []string
	failAt  int
	publish []bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Store(_ context.Context, dataURL, folder string, publish bool) (string, error) {
	if f.failAt > 0 && len(f.stored)+1 == f.failAt {
		return "", fmt.Errorf("%w: boom", storage.ErrUploadFailed)
	}
	f.stored = append(f.stored, dataURL)
	f.publish = append(f.publish, publish)
	return fmt.Sprintf("%s/%d.png", folder, len(f.stored)), nil
}

func img(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func newTestService(t *testing.T, b storage.Backend) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	return NewService(store, b, "uploads", metrics.New()), dir
}

func countRecords(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestCreateSessionKeepsOrder(t *testing.T) {
	b := &fakeBackend{}
	svc, _ := newTestService(t, b)

	sess, err := svc.CreateSession(context.Background(), []string{img("one"), img("two"), img("three")}, false)
	require.NoError(t, err)
	require.Equal(t, []string{"uploads/1.png", "uploads/2.png", "uploads/3.png"}, sess.Images)
	require.Equal(t, []string{img("one"), img("two"), img("three")}, b.stored)

	got, err := svc.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.Images, got.Images)
}

func TestCreateSessionPassesPublish(t *testing.T) {
	b := &fakeBackend{}
	svc, _ := newTestService(t, b)

	_, err := svc.CreateSession(context.Background(), []string{img("one")}, true)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, b.publish)
}

func TestCreateSessionRejectsEmptyInput(t *testing.T) {
	b := &fakeBackend{}
	svc, dir := newTestService(t, b)

	_, err := svc.CreateSession(context.Background(), nil, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateSession(context.Background(), []string{}, false)
	require.ErrorIs(t, err, ErrInvalidInput)

	require.Empty(t, b.stored)
	require.Zero(t, countRecords(t, dir))
}

func TestCreateSessionMalformedImagePersistsNothing(t *testing.T) {
	b := &fakeBackend{}
	svc, dir := newTestService(t, b)

	_, err := svc.CreateSession(context.Background(), []string{img("one"), "data:text/plain;base64,aGk=", img("three")}, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "image 2")

	require.Empty(t, b.stored)
	require.Zero(t, countRecords(t, dir))
}

func TestValidateWritesNothing(t *testing.T) {
	b := &fakeBackend{}
	svc, dir := newTestService(t, b)

	require.NoError(t, svc.Validate([]string{img("one"), img("two")}))
	require.ErrorIs(t, svc.Validate([]string{img("one"), "not-a-data-url"}), ErrInvalidInput)
	require.ErrorIs(t, svc.Validate(nil), ErrInvalidInput)
	require.Empty(t, b.stored)
	require.Zero(t, countRecords(t, dir))
}

func TestCreateSessionStorageFailureAborts(t *testing.T) {
	b := &fakeBackend{failAt: 2}
	svc, dir := newTestService(t, b)

	_, err := svc.CreateSession(context.Background(), []string{img("one"), img("two"), img("three")}, false)
	require.ErrorIs(t, err, storage.ErrUploadFailed)
	require.False(t, errors.Is(err, ErrInvalidInput))
	require.Len(t, b.stored, 1)
	require.Zero(t, countRecords(t, dir))
}

func TestGetUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &fakeBackend{})

	_, err := svc.Get(context.Background(), "3f2504e0-4f89-41d3-9a0c-0305e82c3301")
	require.True(t, svc.IsNotFound(err))
}

func TestGetEmptySessionIsNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	id, err := store.Create(context.Background(), []string{})
	require.NoError(t, err)

	svc := NewService(store, &fakeBackend{}, "uploads", metrics.New())
	_, err = svc.Get(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}
