package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供路由/方法/状态码字段，供请求日志复用。
func RequestFields(route, method string, status int) logrus.Fields {
	return logrus.Fields{
		"route":  route,
		"method": method,
		"status": status,
	}
}
