package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/domain"
)

// runBatch validates the request, then streams every progress event as
// "event: <type>\ndata: <json>\n\n", flushing after each one. A client that
// disconnects cancels the remaining items.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	var req application.BatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ShopID = chi.URLParam(r, "shop")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming is not supported"})
		return
	}

	events, err := s.svc.Batches.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := s.log.WithFields(logrus.Fields{"shop_id": req.ShopID, "operation": req.Operation})
	gone := false
	for ev := range events {
		if gone {
			continue
		}
		if err := writeEvent(w, ev); err != nil {
			// Drain the rest; the processor stops on the cancelled context.
			log.WithError(err).Debug("client went away")
			gone = true
			continue
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, ev domain.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
