package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/clubcal/clubcal/internal/rest"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/period"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	exporter *Exporter
	loc      *time.Location
}

// ShareDTO is returned for share exports. Image is base64 encoded by encoding/json.
type ShareDTO struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Image    []byte `json:"image"`
}

func NewHandler(exporter *Exporter, loc *time.Location) *Handler {
	return &Handler{exporter: exporter, loc: loc}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := Request{View: q.Get("view")}

	var err error
	if req.Action, err = ParseAction(q.Get("action")); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid action", err.Error())
		return
	}
	if date := q.Get("date"); date != "" {
		if req.Ref, err = datekey.FromKey(datekey.Key(date), h.loc); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM-DD format")
			return
		}
	}
	if months := q.Get("months"); months != "" {
		if req.Months, err = strconv.Atoi(months); err != nil || req.Months < 1 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid months", "'months' must be a positive number")
			return
		}
	}

	file, err := h.exporter.Export(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrShareCancelled), errors.Is(err, context.Canceled):
		log.Debugf("export cancelled by the client: %v", err)
		return
	case errors.Is(err, ErrUnknownView), errors.Is(err, period.ErrUnsupportedWindow):
		rest.WriteError(w, http.StatusBadRequest, "Invalid view", err.Error())
		return
	case errors.Is(err, ErrExportInProgress):
		rest.WriteError(w, http.StatusConflict, "Export already in progress", err.Error())
		return
	default:
		log.Errorf("export failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not generate the image", err.Error())
		return
	}

	if req.Action == ActionShare {
		rest.WriteJSON(w, http.StatusOK, ShareDTO{Filename: file.Filename, Title: file.Title, Text: file.Text, Image: file.Data})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	_, _ = w.Write(file.Data)
}
