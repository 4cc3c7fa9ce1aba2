package settings

import (
	"errors"
	"net/http"

	"github.com/clubcal/clubcal/internal/config"
	"github.com/clubcal/clubcal/internal/rest"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
	cfg     config.Application
}

type SettingsDTO struct {
	ClubName         string `json:"clubName"`
	Locale           string `json:"locale"`
	Timezone         string `json:"timezone"`
	WeekStart        string `json:"weekStart"`
	HolidayStrategy  string `json:"holidayStrategy"`
	HolidaysSeeded   bool   `json:"holidaysSeeded"`
	PeriodWindows    []int  `json:"periodWindows"`
	MaxEventSpanDays int    `json:"maxEventSpanDays"`
}

type ClubNameDTO struct {
	ClubName string `json:"clubName"`
}

func NewHandler(service Service, cfg config.Application) *Handler {
	return &Handler{service: service, cfg: cfg}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	club := h.service.Club()
	rest.WriteJSON(w, http.StatusOK, SettingsDTO{
		ClubName:         club.Name,
		Locale:           h.cfg.Club.Locale,
		Timezone:         h.cfg.Club.Timezone,
		WeekStart:        h.cfg.Club.WeekStart,
		HolidayStrategy:  h.cfg.Holidays.Strategy,
		HolidaysSeeded:   club.HolidaysSeeded,
		PeriodWindows:    h.cfg.Agenda.Windows,
		MaxEventSpanDays: h.cfg.Agenda.MaxSpanDays,
	})
}

func (h *Handler) UpdateClubName(w http.ResponseWriter, r *http.Request) {
	var dto ClubNameDTO
	if !rest.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.service.SetClubName(r.Context(), dto.ClubName); err != nil {
		if errors.Is(err, ErrInvalidClubName) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid club name", err.Error())
			return
		}
		log.Errorf("failed to update club name: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not update the club name", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, ClubNameDTO{ClubName: h.service.ClubName()})
}
