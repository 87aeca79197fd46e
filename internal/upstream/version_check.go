package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// CheckAPIVersion 在启动时比对服务器协议版本。版本不符只会产生
// 日志告警，永远不会阻止服务启动——旧服务器也许仍然部分可用。
func (c *Client) CheckAPIVersion(ctx context.Context, logger *logrus.Logger, required string) {
	fields := logrus.Fields{
		"action":   "version_check",
		"upstream": c.base,
		"required": required,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/", http.NoBody)
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("无法构造版本探测请求")
		return
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("无法连接到指定的服务器")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fields["upstream_status"] = resp.StatusCode
		logger.WithFields(fields).Warn("无法连接到指定的服务器")
		return
	}

	var payload struct {
		APIVersion string `json:"ApiVersion"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.APIVersion == "" {
		logger.WithFields(fields).Warn("服务器响应缺少 API 协议版本，可能是旧版或不兼容的服务器")
		return
	}
	fields["detected"] = payload.APIVersion

	compareVersionFragments(logger, fields, required, payload.APIVersion)
}

// compareVersionFragments 按点号分段做数值比较，缺失段补 0。
// 非数字段只告警并跳过，因此并非完整的 semver 语义。
func compareVersionFragments(logger *logrus.Logger, fields logrus.Fields, required, detected string) {
	requiredFragments := strings.Split(required, ".")
	detectedFragments := strings.Split(detected, ".")

	length := len(requiredFragments)
	if len(detectedFragments) > length {
		length = len(detectedFragments)
	}

	for i := 0; i < length; i++ {
		requiredRaw := fragmentAt(requiredFragments, i)
		detectedRaw := fragmentAt(detectedFragments, i)

		requiredVal, reqErr := strconv.Atoi(requiredRaw)
		detectedVal, detErr := strconv.Atoi(detectedRaw)
		if reqErr != nil || detErr != nil {
			logger.WithFields(fields).Warn("版本号包含非数字片段")
			continue
		}

		switch {
		case requiredVal == detectedVal:
			// 继续比较下一段
		case requiredVal < detectedVal:
			logger.WithFields(fields).Warn("服务器协议版本高于本程序要求，可能不兼容")
			return
		default:
			logger.WithFields(fields).Error("服务器协议版本低于本程序要求，很可能不兼容")
			return
		}
	}
}

func fragmentAt(fragments []string, i int) string {
	if i < len(fragments) {
		return fragments[i]
	}
	return "0"
}
