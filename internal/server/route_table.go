package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/any-hub/embed-responder/internal/config"
	"github.com/any-hub/embed-responder/internal/responder"
)

// Route 将一条 [[Route]] 配置与生效策略聚合在一起，供处理器直接复用。
type Route struct {
	// Config 是用户在 config.toml 中声明的路由字段副本。
	Config config.RouteConfig
	// Prefix 为规范化后的 URL 前缀，"/" 匹配所有路径。
	Prefix string
	// Policy 是对当前路由生效的压缩策略，未覆盖时等于全局值。
	Policy responder.Policy
	// Implicit 表示该路由由缺省配置生成，而非用户声明。
	Implicit bool
}

// AssetName 返回查找资源用的路径：StripPrefix 时去掉前缀，其余情况原样返回。
func (r *Route) AssetName(requestPath string) string {
	if !r.Config.StripPrefix || r.Prefix == "/" {
		return requestPath
	}
	return strings.TrimPrefix(requestPath, r.Prefix)
}

func (r *Route) matches(requestPath string) bool {
	if r.Prefix == "/" {
		return true
	}
	return requestPath == r.Prefix || strings.HasPrefix(requestPath, r.Prefix+"/")
}

// RouteTable 提供 URL 路径到 Route 的最长前缀匹配，启动后只读。
type RouteTable struct {
	ordered  []*Route
	byLength []*Route
}

// NewRouteTable 根据配置构建路由表。未声明任何路由时生成覆盖 "/" 的缺省路由。
func NewRouteTable(cfg *config.Config) (*RouteTable, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	table := &RouteTable{}
	seen := make(map[string]struct{}, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		prefix := strings.TrimSpace(rc.Prefix)
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("invalid route prefix %q", rc.Prefix)
		}
		if len(prefix) > 1 {
			prefix = strings.TrimRight(prefix, "/")
		}
		if _, exists := seen[prefix]; exists {
			return nil, fmt.Errorf("duplicate route prefix detected for %s", prefix)
		}
		seen[prefix] = struct{}{}

		table.ordered = append(table.ordered, &Route{
			Config: rc,
			Prefix: prefix,
			Policy: cfg.EffectivePolicy(rc),
		})
	}

	if len(table.ordered) == 0 {
		table.ordered = append(table.ordered, &Route{
			Config:   config.RouteConfig{Prefix: "/"},
			Prefix:   "/",
			Policy:   cfg.Global.Policy,
			Implicit: true,
		})
	}

	table.byLength = append([]*Route(nil), table.ordered...)
	sort.SliceStable(table.byLength, func(i, j int) bool {
		return len(table.byLength[i].Prefix) > len(table.byLength[j].Prefix)
	})
	return table, nil
}

// Lookup 按最长前缀查找路由；前缀只在路径段边界上匹配，"/docs" 不会命中 "/docsite"。
func (t *RouteTable) Lookup(requestPath string) (*Route, bool) {
	if t == nil {
		return nil, false
	}
	if requestPath == "" {
		requestPath = "/"
	}
	for _, route := range t.byLength {
		if route.matches(requestPath) {
			return route, true
		}
	}
	return nil, false
}

// List 返回路由副本（按配置定义的顺序），用于调试或 /-/routes 输出。
func (t *RouteTable) List() []Route {
	if t == nil || len(t.ordered) == 0 {
		return nil
	}
	result := make([]Route, len(t.ordered))
	for i, route := range t.ordered {
		result[i] = *route
	}
	return result
}
