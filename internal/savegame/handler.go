package savegame

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hexgames/internal/game"
	"github.com/nfrund/hexgames/internal/middleware"
)

// maxSaveBytes bounds the size of an uploaded save.
const maxSaveBytes = 1 << 20

// Handler exposes a Store over HTTP so players can park a game on the
// relay host and pick it up from another machine.
type Handler struct {
	store Store
}

// NewHandler creates a new Handler.
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// Register mounts the save routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:name", h.Get)
	g.PUT("/:name", h.Put)
	g.DELETE("/:name", h.Delete)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName), errors.Is(err, game.ErrUnsupportedVersion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// List returns the stored saves, newest first.
func (h *Handler) List(c echo.Context) error {
	infos, err := h.store.List(c.Request().Context())
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to list saves", "error", err)
		return c.String(http.StatusInternalServerError, "Failed to list saves")
	}
	return c.JSON(http.StatusOK, infos)
}

// Get returns one save.
func (h *Handler) Get(c echo.Context) error {
	sv, err := h.store.Load(c.Request().Context(), c.Param("name"))
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			middleware.FromContext(c.Request().Context()).Error("Failed to load save", "name", c.Param("name"), "error", err)
		}
		return c.String(statusOf(err), err.Error())
	}
	return c.JSON(http.StatusOK, sv)
}

// Put stores the save in the request body under the name in the path.
func (h *Handler) Put(c echo.Context) error {
	var sv game.Save
	dec := json.NewDecoder(http.MaxBytesReader(c.Response(), c.Request().Body, maxSaveBytes))
	if err := dec.Decode(&sv); err != nil {
		return c.String(http.StatusBadRequest, "Invalid save: "+err.Error())
	}
	if sv.Version < 1 || sv.Version > game.SaveVersion {
		return c.String(http.StatusBadRequest, "Unsupported save version")
	}
	info, err := h.store.Save(c.Request().Context(), c.Param("name"), sv)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			middleware.FromContext(c.Request().Context()).Error("Failed to store save", "name", c.Param("name"), "error", err)
		}
		return c.String(statusOf(err), err.Error())
	}
	middleware.FromContext(c.Request().Context()).Info("Save stored", "name", info.Name, "size", info.Size)
	return c.JSON(http.StatusCreated, info)
}

// Delete removes one save.
func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("name")); err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			middleware.FromContext(c.Request().Context()).Error("Failed to delete save", "name", c.Param("name"), "error", err)
		}
		return c.String(statusOf(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
