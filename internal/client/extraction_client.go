package client

import (
	"context"
	"time"
)

// ExtractionClient OCR 提取服务客户端
// 提取管道自行消费配置变更事件, 管理端只做健康探测
type ExtractionClient struct {
	*ServiceClient
}

// NewExtractionClient 创建提取服务客户端
func NewExtractionClient(baseURL string, timeout time.Duration) *ExtractionClient {
	return &ExtractionClient{
		ServiceClient: NewServiceClient("extraction", baseURL, timeout),
	}
}

// PipelineStats 提取管道的实时统计
type PipelineStats struct {
	Pending        int64   `json:"pending"`
	Processing     int64   `json:"processing"`
	CompletedToday int64   `json:"completed_today"`
	FailedToday    int64   `json:"failed_today"`
	AvgConfidence  float64 `json:"avg_confidence"`
}

// Stats 获取提取管道统计, 用于管理端看板
func (c *ExtractionClient) Stats(ctx context.Context) (*PipelineStats, error) {
	var stats PipelineStats
	if err := c.getJSON(ctx, "/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
