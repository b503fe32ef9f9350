package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) GetExperienceHandler(c echo.Context) error {
	experienceID, err := pathUUID(c, "experience_id")
	if err != nil {
		return err
	}

	exp, err := s.catalogService.GetExperience(c.Request().Context(), experienceID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, exp)
}
