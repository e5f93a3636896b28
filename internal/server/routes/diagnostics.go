package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/server"
)

// Lister 由支持枚举的资源源实现（bundle 模式）。
type Lister interface {
	List() []asset.Info
}

// StatsProvider 暴露压缩缓存统计，*compress.Cache 满足该接口。
type StatsProvider interface {
	Stats() []compress.FamilyStats
}

// DiagnosticsOptions 汇总诊断接口所需的只读依赖。
type DiagnosticsOptions struct {
	Mode   string
	Source asset.Source
	Cache  StatsProvider
	Routes *server.RouteTable
}

// RegisterDiagnosticsRoutes 暴露 /-/assets、/-/compression、/-/loaders 与 /-/routes 诊断接口。
func RegisterDiagnosticsRoutes(app *fiber.App, opts DiagnosticsOptions) {
	if app == nil {
		return
	}

	app.Get("/-/assets", func(c fiber.Ctx) error {
		lister, ok := opts.Source.(Lister)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "listing_unsupported",
				"mode":  opts.Mode,
			})
		}
		assets := lister.List()
		return c.JSON(fiber.Map{
			"mode":   opts.Mode,
			"count":  len(assets),
			"assets": assets,
		})
	})

	app.Get("/-/assets/*", func(c fiber.Ctx) error {
		name, ok := asset.CleanName(c.Params("*"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "asset_name_required"})
		}
		lister, ok := opts.Source.(Lister)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing_unsupported"})
		}
		for _, info := range lister.List() {
			if info.Name == name {
				return c.JSON(info)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "asset_not_found"})
	})

	app.Get("/-/compression", func(c fiber.Ctx) error {
		var families []compress.FamilyStats
		if opts.Cache != nil {
			families = opts.Cache.Stats()
		}
		return c.JSON(fiber.Map{"families": families})
	})

	app.Get("/-/loaders", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"active":  strings.ToLower(opts.Mode),
			"loaders": asset.Loaders(),
		})
	})

	app.Get("/-/routes", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"routes": encodeRoutes(opts.Routes.List())})
	})
}

type routePayload struct {
	Prefix      string `json:"prefix"`
	Compression string `json:"compression"`
	Override    bool   `json:"override"`
	StripPrefix bool   `json:"strip_prefix"`
	Implicit    bool   `json:"implicit,omitempty"`
}

func encodeRoutes(routes []server.Route) []routePayload {
	if len(routes) == 0 {
		return nil
	}
	result := make([]routePayload, 0, len(routes))
	for _, route := range routes {
		result = append(result, routePayload{
			Prefix:      route.Prefix,
			Compression: route.Policy.String(),
			Override:    route.Config.HasOverride(),
			StripPrefix: route.Config.StripPrefix,
			Implicit:    route.Implicit,
		})
	}
	return result
}
