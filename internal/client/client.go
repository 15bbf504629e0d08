// Package client 提供访问平台下游服务的 HTTP 客户端
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/config"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// defaultTimeout 下游请求默认超时
const defaultTimeout = 3 * time.Second

// ServiceClient 下游服务 REST 客户端基类
type ServiceClient struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

// NewServiceClient 创建下游服务客户端
func NewServiceClient(name, baseURL string, timeout time.Duration) *ServiceClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ServiceClient{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name 服务名
func (c *ServiceClient) Name() string {
	return c.name
}

// BaseURL 服务地址
func (c *ServiceClient) BaseURL() string {
	return c.baseURL
}

// Configured 是否配置了服务地址
func (c *ServiceClient) Configured() bool {
	return c.baseURL != ""
}

// getJSON 发起 GET 请求并解析 JSON 响应, out 为 nil 时丢弃响应体
func (c *ServiceClient) getJSON(ctx context.Context, path string, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordServiceClientRequest(c.name, status, time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.ErrInternal.WithMessagef("构造请求失败: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.ErrServiceUnavailable.WithMessagef("%s 服务不可达: %v", c.name, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return apperrors.ErrServiceUnavailable.WithMessagef("%s 服务响应异常: %d", c.name, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.ErrInternal.WithMessagef("解析 %s 响应失败: %v", c.name, err)
	}
	return nil
}

// Health 探测下游服务的 /health 端点
func (c *ServiceClient) Health(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("%s 服务地址未配置", c.name)
	}
	return c.getJSON(ctx, "/health", nil)
}

// Manager 管理全部下游服务客户端
type Manager struct {
	extraction *ExtractionClient
	mapping    *MappingClient
}

// NewManager 根据配置创建客户端管理器
func NewManager(cfg *config.ClientsConfig) *Manager {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	return &Manager{
		extraction: NewExtractionClient(cfg.Extraction, timeout),
		mapping:    NewMappingClient(cfg.Mapping, timeout),
	}
}

// Extraction 提取服务客户端
func (m *Manager) Extraction() *ExtractionClient {
	return m.extraction
}

// Mapping 映射服务客户端
func (m *Manager) Mapping() *MappingClient {
	return m.mapping
}

// Close 释放空闲连接
func (m *Manager) Close() {
	m.extraction.httpClient.CloseIdleConnections()
	m.mapping.httpClient.CloseIdleConnections()
}
