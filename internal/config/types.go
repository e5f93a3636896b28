package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/responder"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为，所有路由共享同一份资源源与压缩缓存。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	// AssetsPath 为空时使用内置演示站点。
	AssetsPath string `mapstructure:"AssetsPath"`
	// Mode 选择资源加载器，见 asset.Loaders()。
	Mode      string           `mapstructure:"Mode"`
	IndexFile string           `mapstructure:"IndexFile"`
	Policy    responder.Policy `mapstructure:"Compression"`
	// Precompress 是 bundle 模式构建时在内存中预压缩的编码族。
	Precompress []compress.Encoding `mapstructure:"Precompress"`
	// Encodings 限制响应可使用的编码族，空表示全部。
	Encodings              []compress.Encoding `mapstructure:"Encodings"`
	MaxCompressedCacheSize int64               `mapstructure:"MaxCompressedCacheSize"`
	ShutdownTimeout        Duration            `mapstructure:"ShutdownTimeout"`
}

// RouteConfig 将一个 URL 前缀映射到压缩策略。
type RouteConfig struct {
	Prefix string `mapstructure:"Prefix"`
	// Compression 为空时沿用全局策略。
	Compression string `mapstructure:"Compression"`
	// StripPrefix 为 true 时，查找资源前去掉 Prefix。
	StripPrefix bool `mapstructure:"StripPrefix"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig  `mapstructure:",squash"`
	Routes []RouteConfig `mapstructure:"Route"`
}

// HasOverride 表示路由是否覆盖了全局压缩策略。
func (r RouteConfig) HasOverride() bool {
	return strings.TrimSpace(r.Compression) != ""
}

// EffectivePolicy 返回路由生效的压缩策略，未覆盖时回退至全局值。
// 假定 Validate 已经通过。
func (c *Config) EffectivePolicy(r RouteConfig) responder.Policy {
	if r.HasOverride() {
		if policy, err := responder.ParsePolicy(r.Compression); err == nil {
			return policy
		}
	}
	return c.Global.Policy
}

// RouteSummaries 返回所有路由的策略摘要，例如 /docs:always，供日志字段使用。
func (c *Config) RouteSummaries() []string {
	if len(c.Routes) == 0 {
		return nil
	}
	result := make([]string, len(c.Routes))
	for i, route := range c.Routes {
		result[i] = fmt.Sprintf("%s:%s", route.Prefix, c.EffectivePolicy(route))
	}
	return result
}
