package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/hairlab/stylist/pkg/service/notify"
	"github.com/m-mizutani/gt"
)

func TestSlackWebhook_NotifyAccepted(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if err := json.Unmarshal(body, &received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := notify.NewSlackWebhook(srv.URL, notify.WithChannel("#salon"))
	gt.NoError(t, err).Required()

	rec := &model.Recommendation{
		RecordID:    "rec-1",
		StyleName:   "Layered Bob",
		Description: "Soft layers",
		Confidence:  0.87,
		Products:    []string{"Moisture Boost Shampoo"},
	}
	gt.NoError(t, n.NotifyAccepted(context.Background(), rec)).Required()

	gt.Value(t, received["channel"]).Equal("#salon")
	gt.String(t, received["text"].(string)).Contains("Layered Bob")
	gt.String(t, received["text"].(string)).Contains("87%")

	raw, err := json.Marshal(received["blocks"])
	gt.NoError(t, err).Required()
	gt.String(t, string(raw)).Contains("Moisture Boost Shampoo")
	gt.String(t, string(raw)).Contains("rec-1")
}

func TestSlackWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	n, err := notify.NewSlackWebhook(srv.URL)
	gt.NoError(t, err).Required()

	err = n.NotifyAccepted(context.Background(), &model.Recommendation{StyleName: "Pixie"})
	gt.Error(t, err)
}

func TestNewSlackWebhook_RequiresURL(t *testing.T) {
	_, err := notify.NewSlackWebhook("")
	gt.Error(t, err)
}
