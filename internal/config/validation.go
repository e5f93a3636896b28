package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/responder"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, ok := asset.ResolveLoader(g.Mode); !ok {
		return newFieldError("Global.Mode", "仅支持 "+loaderList())
	}
	if err := validateAssetsPath(g.AssetsPath); err != nil {
		return fmt.Errorf("Global.AssetsPath: %w", err)
	}
	if g.IndexFile != "" && strings.ContainsAny(g.IndexFile, `/\`) {
		return newFieldError("Global.IndexFile", "必须是文件名，不能包含路径分隔符")
	}
	if !g.Policy.Valid() {
		return newFieldError("Global.Compression", fmt.Sprintf("未知策略: %s", g.Policy))
	}
	if err := validateEncodings(g.Precompress); err != nil {
		return fmt.Errorf("Global.Precompress: %w", err)
	}
	if err := validateEncodings(g.Encodings); err != nil {
		return fmt.Errorf("Global.Encodings: %w", err)
	}
	if g.MaxCompressedCacheSize < 0 {
		return newFieldError("Global.MaxCompressedCacheSize", "不能为负数")
	}
	if g.ShutdownTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ShutdownTimeout", "必须大于 0")
	}

	seenPrefixes := map[string]struct{}{}
	for i := range c.Routes {
		route := &c.Routes[i]
		if route.Prefix == "" {
			return newFieldError("Route[].Prefix", "不能为空")
		}
		if !strings.HasPrefix(route.Prefix, "/") {
			return newFieldError(routeField(route.Prefix, "Prefix"), "必须以 / 开头")
		}
		if strings.HasPrefix(route.Prefix, "/-/") || route.Prefix == "/-" {
			return newFieldError(routeField(route.Prefix, "Prefix"), "/-/ 为诊断接口保留")
		}
		if _, exists := seenPrefixes[route.Prefix]; exists {
			return newFieldError(routeField(route.Prefix, "Prefix"), "重复")
		}
		seenPrefixes[route.Prefix] = struct{}{}

		if route.HasOverride() {
			policy, err := responder.ParsePolicy(route.Compression)
			if err != nil {
				return newFieldError(routeField(route.Prefix, "Compression"), "仅支持 never/if-precompressed/if-well-known/always")
			}
			route.Compression = policy.String()
		}
		if route.StripPrefix && route.Prefix == "/" {
			return newFieldError(routeField(route.Prefix, "StripPrefix"), "根路由无需去除前缀")
		}
	}

	return nil
}

func validateAssetsPath(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s 不是目录", dir)
	}
	return nil
}

func validateEncodings(encodings []compress.Encoding) error {
	seen := make(map[compress.Encoding]struct{}, len(encodings))
	for _, enc := range encodings {
		if _, err := compress.ParseEncoding(string(enc)); err != nil {
			return err
		}
		if _, exists := seen[enc]; exists {
			return fmt.Errorf("重复的编码: %s", enc)
		}
		seen[enc] = struct{}{}
	}
	return nil
}

func loaderList() string {
	loaders := asset.Loaders()
	keys := make([]string, len(loaders))
	for i, meta := range loaders {
		keys[i] = meta.Key
	}
	return strings.Join(keys, "|")
}
