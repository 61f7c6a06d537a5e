package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobUploadResult 上传结果
type BlobUploadResult struct {
	URL      string `json:"url"`
	Pathname string `json:"pathname"`
}

// BlobStore 外部对象存储的 HTTP 客户端
type BlobStore struct {
	baseURL string
	token   string
	client  *http.Client
}

var ErrBlobStoreDisabled = &Error{Kind: KindUnavailable, Message: "File storage is not configured"}

// NewBlobStore baseURL 或 token 为空时返回的实例不可用
func NewBlobStore(baseURL, token string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *BlobStore) Enabled() bool {
	return s != nil && s.baseURL != "" && s.token != ""
}

// BlobPathname 生成 uploads/<uuid><ext>，扩展名取自原文件名
func BlobPathname(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return "uploads/" + uuid.NewString() + ext
}

// Put 以 PUT 方式上传到 {baseURL}/{pathname}
func (s *BlobStore) Put(ctx context.Context, pathname, contentType string, body io.Reader) (*BlobUploadResult, error) {
	if !s.Enabled() {
		return nil, ErrBlobStoreDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/"+pathname, body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-content-type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("上传请求失败: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("对象存储上传失败: status %d", resp.StatusCode)
	}

	var result BlobUploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("对象存储未返回 url")
	}
	if result.Pathname == "" {
		result.Pathname = pathname
	}
	return &result, nil
}

// Delete 删除已上传的文件
func (s *BlobStore) Delete(ctx context.Context, url string) error {
	if !s.Enabled() {
		return ErrBlobStoreDisabled
	}

	payload, err := json.Marshal(map[string][]string{"urls": {url}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/delete", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("删除请求失败: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("对象存储删除失败: status %d", resp.StatusCode)
	}
	return nil
}
