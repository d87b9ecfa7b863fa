package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/reacji-tweeter/internal/store"
)

type handlers struct {
	store  store.Store
	logger zerolog.Logger
}

func itemKey(c *fiber.Ctx) store.ItemKey {
	return store.ItemKey{
		Kind:    store.ItemKind(c.Params("kind")),
		SlackID: c.Params("id"),
	}
}

// getItem returns the tracked item for (kind, slack id).
func (h *handlers) getItem(c *fiber.Ctx) error {
	key := itemKey(c)
	item, err := h.store.Load(c.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found",
			"no tracked item for "+key.String())
	}
	if err != nil {
		return err
	}
	return c.JSON(item)
}

type forbiddenRequest struct {
	Forbidden bool `json:"forbidden"`
}

// setForbidden sets or clears the forbidden flag. Creates the record when it
// does not exist yet, so operators can suppress messages before anyone
// reacts to them. Other fields are untouched (upsert-merge).
func (h *handlers) setForbidden(c *fiber.Ctx) error {
	key := itemKey(c)
	if key.Kind != store.KindMessage {
		return problemResponse(c, fiber.StatusBadRequest,
			"unsupported_kind", "Bad Request",
			"unknown item kind "+string(key.Kind))
	}

	var req forbiddenRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"body must be JSON with a boolean \"forbidden\" field")
	}

	err := h.store.Save(c.Context(), store.ItemPatch{
		Kind:      key.Kind,
		SlackID:   key.SlackID,
		Forbidden: store.BoolPtr(req.Forbidden),
	})
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("item", key.String()).
		Bool("forbidden", req.Forbidden).
		Msg("forbidden flag updated")

	item, err := h.store.Load(c.Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(item)
}
