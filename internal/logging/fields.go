package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供路由/路径/状态/编码字段，供请求日志复用。
// encoding 为空表示未压缩，统一输出为 identity。
func RequestFields(route, path, method string, status int, encoding string) logrus.Fields {
	if encoding == "" {
		encoding = "identity"
	}
	return logrus.Fields{
		"route":    route,
		"path":     path,
		"method":   method,
		"status":   status,
		"encoding": encoding,
	}
}
