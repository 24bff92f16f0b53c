package cachectrl

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// OptIn lets clients and proxies keep the response for maxAge. Results change
// while counting goes on, so maxAge should stay short.
func OptIn(ctx *fiber.Ctx, lastModified time.Time, maxAge time.Duration) {
	ctx.Set(fiber.HeaderCacheControl, "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
	ctx.Set(fiber.HeaderExpires, time.Now().Add(maxAge).UTC().Format(http.TimeFormat))

	if !lastModified.IsZero() {
		ctx.Response().Header.SetLastModified(lastModified)
	}
}

func OptOut(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	ctx.Set(fiber.HeaderPragma, "no-cache")
	ctx.Set(fiber.HeaderExpires, "0")
}
