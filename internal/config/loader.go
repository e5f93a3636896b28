package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/responder"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := rejectRouteLevelAssets(v); err != nil {
		return nil, err
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		policyDecodeHook(),
		encodingDecodeHook(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Routes {
		applyRouteDefaults(&cfg.Routes[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Global.AssetsPath != "" {
		absAssets, err := filepath.Abs(cfg.Global.AssetsPath)
		if err != nil {
			return nil, fmt.Errorf("无法解析资源目录: %w", err)
		}
		cfg.Global.AssetsPath = absAssets
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("AssetsPath", "")
	v.SetDefault("Mode", asset.DefaultLoaderKey)
	v.SetDefault("IndexFile", "index.html")
	v.SetDefault("Compression", responder.IfPrecompressed.String())
	v.SetDefault("Precompress", []string{"gzip", "br", "zstd"})
	v.SetDefault("MaxCompressedCacheSize", 64*1024*1024)
	v.SetDefault("ShutdownTimeout", "10s")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	g.Mode = strings.ToLower(strings.TrimSpace(g.Mode))
	if g.Mode == "" {
		g.Mode = asset.DefaultLoaderKey
	}
	if g.ShutdownTimeout.DurationValue() == 0 {
		g.ShutdownTimeout = Duration(10 * time.Second)
	}
}

func applyRouteDefaults(r *RouteConfig) {
	r.Prefix = strings.TrimSpace(r.Prefix)
	if r.Prefix != "" && !strings.HasPrefix(r.Prefix, "/") {
		r.Prefix = "/" + r.Prefix
	}
	if len(r.Prefix) > 1 {
		r.Prefix = strings.TrimRight(r.Prefix, "/")
	}
	if policy, err := responder.ParsePolicy(r.Compression); err == nil && r.HasOverride() {
		r.Compression = policy.String()
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// policyDecodeHook 将 "always"、"IfWellKnown" 等写法转换为 responder.Policy。
func policyDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(responder.Policy(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			policy, err := responder.ParsePolicy(v)
			if err != nil {
				return nil, newFieldError("Compression", err.Error())
			}
			return policy, nil
		case responder.Policy:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Compression 类型: %T", v)
		}
	}
}

// encodingDecodeHook 规范化编码名，兼容 gz/brotli/zst 等别名。
func encodingDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(compress.Identity)

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}
		raw, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("不支持的编码类型: %T", data)
		}
		enc, err := compress.ParseEncoding(raw)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
}

// rejectRouteLevelAssets 拒绝在 [[Route]] 中配置资源目录：所有路由共享同一资源源。
func rejectRouteLevelAssets(v *viper.Viper) error {
	raw := v.Get("Route")
	routes, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	for idx, entry := range routes {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name := fmt.Sprintf("#%d", idx)
		for key, value := range m {
			if strings.EqualFold(key, "Prefix") {
				if rawPrefix, ok := value.(string); ok && rawPrefix != "" {
					name = rawPrefix
				}
			}
		}
		for key := range m {
			for _, forbidden := range []string{"AssetsPath", "Mode"} {
				if strings.EqualFold(key, forbidden) {
					return newFieldError(routeField(name, forbidden), "仅支持全局配置，请移至文件顶层")
				}
			}
		}
	}

	return nil
}
