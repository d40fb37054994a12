package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/voiceform/agent"
	"github.com/tbxark/voiceform/stt"
	"github.com/tbxark/voiceform/types"
)

type fakeConversations struct {
	start func(audio stt.Audio) (*agent.Response, error)
	next  func(id string, audio stt.Audio) (*agent.Response, error)
}

func (f *fakeConversations) Start(ctx context.Context, audio stt.Audio) (*agent.Response, error) {
	return f.start(audio)
}

func (f *fakeConversations) Continue(ctx context.Context, id string, audio stt.Audio) (*agent.Response, error) {
	return f.next(id, audio)
}

func upload(t *testing.T, path string, fields map[string]string, audio []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if audio != nil {
		fw, err := mw.CreateFormFile("audio", "input.wav")
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProcessAudioIncomplete(t *testing.T) {
	t.Parallel()
	srv := New(&fakeConversations{start: func(audio stt.Audio) (*agent.Response, error) {
		assert.Equal(t, "input.wav", audio.Name)
		assert.Equal(t, []byte("pcm"), audio.Data)
		return &agent.Response{
			Status:        types.StatusIncomplete,
			Phase:         types.PhaseIncomplete,
			Record:        types.Record{LastName: types.String("ใจดี")},
			MissingFields: []types.Field{types.FieldFirstName},
			Message:       "ขอรบกวนยืนยันชื่ออีกครั้ง เนื่องจากระบบอาจได้ยินไม่ชัด",
			Transcript:    "นามสกุลใจดี",
			SessionID:     "abc",
		}, nil
	}}, 0)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, upload(t, "/process-audio", nil, []byte("pcm")))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "incomplete", out["status"])
	assert.Equal(t, "abc", out["session_id"])
	assert.Equal(t, []any{"first_name"}, out["missing_fields"])
	assert.Equal(t, "นามสกุลใจดี", out["transcript"])
	partial := out["data_partial"].(map[string]any)
	assert.Equal(t, "ใจดี", partial["last_name"])
	assert.Contains(t, partial, "first_name")
	assert.Nil(t, partial["first_name"])
}

func TestSubmitAudioComplete(t *testing.T) {
	t.Parallel()
	srv := New(&fakeConversations{next: func(id string, audio stt.Audio) (*agent.Response, error) {
		assert.Equal(t, "abc", id)
		return &agent.Response{
			Status:     types.StatusComplete,
			Phase:      types.PhaseComplete,
			Record:     types.Record{FirstName: types.String("Somchai")},
			Transcript: "สมชาย",
		}, nil
	}}, 0)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, upload(t, "/submit-audio", map[string]string{"session_id": "abc"}, []byte("pcm")))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "complete", out["status"])
	assert.Equal(t, "Somchai", out["data"].(map[string]any)["first_name"])
	assert.NotContains(t, out, "session_id")
}

func TestSubmitAudioErrors(t *testing.T) {
	t.Parallel()
	conv := &fakeConversations{next: func(id string, audio stt.Audio) (*agent.Response, error) {
		if id == "gone" {
			return nil, agent.ErrSessionNotFound
		}
		return nil, errors.New("extract: connection refused")
	}}
	srv := New(conv, 0)

	tests := []struct {
		name   string
		fields map[string]string
		audio  []byte
		want   int
	}{
		{"unknown session", map[string]string{"session_id": "gone"}, []byte("pcm"), http.StatusNotFound},
		{"collaborator failure", map[string]string{"session_id": "abc"}, []byte("pcm"), http.StatusBadGateway},
		{"missing session id", nil, []byte("pcm"), http.StatusBadRequest},
		{"missing audio", map[string]string{"session_id": "abc"}, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, upload(t, "/submit-audio", tt.fields, tt.audio))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestHealthAndMethods(t *testing.T) {
	t.Parallel()
	srv := New(&fakeConversations{}, 0)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process-audio", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
