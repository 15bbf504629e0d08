package client

import "time"

// MappingClient 转发映射服务客户端
type MappingClient struct {
	*ServiceClient
}

// NewMappingClient 创建映射服务客户端
func NewMappingClient(baseURL string, timeout time.Duration) *MappingClient {
	return &MappingClient{
		ServiceClient: NewServiceClient("mapping", baseURL, timeout),
	}
}
