package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemoteDetector_Infer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("image-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[
			{"label":"cat","score":0.87,"box":{"xmin":10,"ymin":10,"xmax":50,"ymax":50}},
			{"label":"box","box":{"xmin":1,"ymin":2,"xmax":3,"ymax":4}}
		]}`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL+"/predict", time.Second)
	got, err := d.Infer(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "cat", *got[0].Label)
	require.Equal(t, 0.87, *got[0].Score)
	require.Equal(t, 50, got[0].Box.XMax)

	require.Equal(t, "box", *got[1].Label)
	require.Nil(t, got[1].Score)
}

func TestRemoteDetector_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(` [{"score":0.5,"box":{"xmin":0,"ymin":0,"xmax":5,"ymax":5}}]`))
	}))
	defer srv.Close()

	got, err := NewRemoteDetector(srv.URL, time.Second).Infer(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].Label)
}

func TestRemoteDetector_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte("{not json"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRemoteDetector(srv.URL+"/predict", time.Second).Infer(context.Background(), []byte("x"))
	require.ErrorContains(t, err, "503")

	_, err = NewRemoteDetector(srv.URL+"/broken", time.Second).Infer(context.Background(), []byte("x"))
	require.ErrorContains(t, err, "decode response")

	_, err = NewRemoteDetector("http://127.0.0.1:1/predict", time.Second).Infer(context.Background(), []byte("x"))
	require.Error(t, err)
}

func TestRemoteDetector_CheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	require.NoError(t, NewRemoteDetector(srv.URL+"/predict", time.Second).CheckHealth(context.Background()))
	require.Error(t, NewRemoteDetector(srv.URL+"/api/v1/predict", time.Second).CheckHealth(context.Background()))
}

func TestHealthURLFor(t *testing.T) {
	for in, want := range map[string]string{
		"http://localhost:5000/predict":        "http://localhost:5000/health",
		"http://localhost:5000/api/predict?x=1": "http://localhost:5000/api/health",
		"http://localhost:5000":                "http://localhost:5000/health",
	} {
		got, err := healthURLFor(in)
		require.NoError(t, err)
		require.Equal(t, want, got, in)
	}
}
