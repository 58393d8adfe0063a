package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskrelayhq/taskrelay/internal/chat"
)

func TestForwardMentionMultipart(t *testing.T) {
	t.Parallel()

	var gotFields map[string]string
	var gotFile []byte
	var gotFilename, gotFileType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFile, _ = io.ReadAll(file)
		gotFilename = header.Filename
		gotFileType = header.Header.Get("Content-Type")

		w.Write([]byte(`{"title":"Ticket","description":"desc","due_date":"2026-09-10"}`))
	}))
	defer srv.Close()

	f := NewForwarder(nil, srv.Client(), srv.URL, "")
	event := BuildMentionEvent(chat.Message{
		Body:            "@bot hola",
		ChatID:          "g1@g.us",
		ChatName:        "Grupo",
		SenderID:        "521800@c.us",
		SentAtEpochSecs: 10,
	}, &chat.Attachment{MimeType: "image/png", Bytes: []byte{0x89, 0x50}, Extension: "png"})

	res, err := f.Forward(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "Ticket", res.Title)

	assert.Equal(t, "g1@g.us", gotFields["groupId"])
	assert.Equal(t, "Grupo", gotFields["groupName"])
	assert.Equal(t, "521800@c.us", gotFields["senderJid"])
	assert.Equal(t, "521800", gotFields["senderNumber"])
	assert.Equal(t, "10", gotFields["timestamp"])
	assert.Equal(t, "10000", gotFields["messageDateMs"])
	assert.Equal(t, []byte{0x89, 0x50}, gotFile)
	assert.Equal(t, "archivo.png", gotFilename)
	assert.Equal(t, "image/png", gotFileType)
}

func TestForwardMentionWithoutAttachment(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		assert.Error(t, err)
		w.Write([]byte("created, see dashboard"))
	}))
	defer srv.Close()

	f := NewForwarder(nil, srv.Client(), srv.URL, "")
	res, err := f.Forward(context.Background(), BuildMentionEvent(chat.Message{Body: "x", SentAtEpochSecs: 1}, nil))
	require.NoError(t, err)
	assert.Equal(t, "created, see dashboard", res.Raw)
}

func TestForwardDirectJSON(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewForwarder(nil, srv.Client(), "http://unused.invalid", srv.URL)
	event := BuildDirectEvent(chat.Message{
		Body:              "SEMSA",
		SenderID:          "52180@c.us",
		SenderDisplayName: "Luis",
		SentAtEpochSecs:   7,
	})
	_, err := f.Forward(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "52180@c.us", got["from"])
	assert.Equal(t, "Luis", got["name"])
	assert.Equal(t, "SEMSA", got["message"])
	assert.Equal(t, float64(7), got["timestamp"])
	assert.Equal(t, float64(7000), got["messageDateMs"])
}

func TestForwardDirectWithoutEndpoint(t *testing.T) {
	t.Parallel()

	f := NewForwarder(nil, nil, "http://unused.invalid", "")
	_, err := f.Forward(context.Background(), BuildDirectEvent(chat.Message{Body: "SEMSA"}))
	assert.ErrorIs(t, err, ErrNoDirectEndpoint)
}

func TestForwardReportsNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewForwarder(nil, srv.Client(), srv.URL, "")
	_, err := f.Forward(context.Background(), BuildMentionEvent(chat.Message{Body: "x"}, nil))
	assert.Error(t, err)
}

func TestForwardNoiseDegradesToRaw(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Accepted.\nProcessing шум {\"title\":\"T1\"} trailing"))
	}))
	defer srv.Close()

	f := NewForwarder(nil, srv.Client(), srv.URL, "")
	res, err := f.Forward(context.Background(), BuildMentionEvent(chat.Message{Body: "x"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Title)
}
