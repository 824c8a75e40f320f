package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Register mounts the relay endpoints: the websocket at /ws, a health
// check, and the recorded matches when rec is not nil.
func (r *Relay) Register(e *echo.Echo, rec *Recorder) {
	e.GET("/ws", echo.WrapHandler(r))
	e.GET("/health", r.health)

	if rec == nil {
		return
	}
	g := e.Group("/matches")
	g.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, rec.Matches())
	})
	g.GET("/:id", func(c echo.Context) error {
		m, ok := rec.Match(c.Param("id"))
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "match not found")
		}
		return c.JSON(http.StatusOK, m)
	})
}

func (r *Relay) health(c echo.Context) error {
	peers, match := r.Peers()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"peers":  peers,
		"match":  match,
	})
}
