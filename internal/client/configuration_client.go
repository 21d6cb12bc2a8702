package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"examcell_backend/internal/qbank"
	"examcell_backend/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const configurationPath = "/questionbanks/configuration_details"

// ConfigurationClient 远程题库配置服务，不做重试
type ConfigurationClient struct {
	http *resty.Client
}

func NewConfigurationClient(baseURL string, timeout time.Duration) *ConfigurationClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &ConfigurationClient{http: c}
}

// envelope 兼容 {code,message,data} 包装和裸响应两种格式
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *ConfigurationClient) FetchConfiguration(ctx context.Context, req qbank.ConfigurationRequest) (*qbank.ConfigurationResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(configurationPath)
	if err != nil {
		logger.Log.Warn("Configuration provider request failed", zap.Error(err))
		return nil, err
	}

	var env envelope
	_ = json.Unmarshal(resp.Body(), &env)

	if resp.IsError() {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = fmt.Sprintf("configuration provider returned %d", resp.StatusCode())
		}
		logger.Log.Warn("Configuration provider error",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return nil, fmt.Errorf("%s", msg)
	}

	body := resp.Body()
	if len(env.Data) > 0 && string(env.Data) != "null" {
		body = env.Data
	}
	var out qbank.ConfigurationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode configuration response: %w", err)
	}
	return &out, nil
}
