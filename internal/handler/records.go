package handler

import (
	"github.com/deppfellow/trialbroker/internal/model"
	"github.com/deppfellow/trialbroker/internal/server"
	"github.com/deppfellow/trialbroker/internal/service"
	"github.com/labstack/echo/v4"
)

// CTUHandler serves /api/ctus.
type CTUHandler struct {
	Handler
	service *service.RecordService[*model.CTU]
}

func NewCTUHandler(s *server.Server, svc *service.RecordService[*model.CTU]) *CTUHandler {
	return &CTUHandler{
		Handler: NewHandler(s),
		service: svc,
	}
}

func (h *CTUHandler) Create(c echo.Context, req *model.CTU) (CreatedResponse, error) {
	id, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return CreatedResponse{}, err
	}
	return CreatedResponse{ID: id}, nil
}

func (h *CTUHandler) List(c echo.Context, req *model.CTUListQuery) ([]*model.CTU, error) {
	return h.service.List(c.Request().Context(), req.Options())
}

// SponsorHandler serves /api/sponsors.
type SponsorHandler struct {
	Handler
	service *service.RecordService[*model.Sponsor]
}

func NewSponsorHandler(s *server.Server, svc *service.RecordService[*model.Sponsor]) *SponsorHandler {
	return &SponsorHandler{
		Handler: NewHandler(s),
		service: svc,
	}
}

func (h *SponsorHandler) Create(c echo.Context, req *model.Sponsor) (CreatedResponse, error) {
	id, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return CreatedResponse{}, err
	}
	return CreatedResponse{ID: id}, nil
}

func (h *SponsorHandler) List(c echo.Context, req *model.SponsorListQuery) ([]*model.Sponsor, error) {
	return h.service.List(c.Request().Context(), req.Options())
}
