package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"docint/internal/retrieval"
)

// QueryHandler serves retrieval-augmented question answering.
type QueryHandler struct {
	Svc *retrieval.QueryService
}

func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
}

func (h *QueryHandler) query(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Query text required")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query text required")
	}

	answer, err := h.Svc.Answer(c.Request().Context(), req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Results: []QueryResult{{Text: answer.Text, Score: answer.Score}},
	})
}
