package cachectrl

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	modified := time.Date(2015, 10, 18, 14, 30, 0, 0, time.UTC)

	app := fiber.New()
	app.Get("/in", func(c *fiber.Ctx) error {
		OptIn(c, modified, 30*time.Second)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/out", func(c *fiber.Ctx) error {
		OptOut(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/in", nil))
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=30", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "Sun, 18 Oct 2015 14:30:00 GMT", resp.Header.Get(fiber.HeaderLastModified))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/out", nil))
	require.NoError(t, err)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "0", resp.Header.Get(fiber.HeaderExpires))
}
