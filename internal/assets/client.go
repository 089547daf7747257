package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured 表示资源库的地址或令牌缺失。
var ErrNotConfigured = errors.New("asset store not configured")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// File 是资源库返回的文件描述。
type File struct {
	ID           string `json:"id"`
	FilenameDisk string `json:"filename_disk"`
}

// Client 负责把二进制文件上传到外部资源库（Directus 风格的 /files 接口），
// 并由返回的标识拼出公开访问地址。凭据只存在请求头里，从不出现在返回的 URL 中。
type Client struct {
	baseURL string
	token   string
	http    httpDoer
}

// NewClient 创建资源库客户端。baseURL 末尾的斜杠会被去掉。
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，主要用于测试。
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
		return
	}
	c.http = client
}

// Configured 报告客户端是否具备可用配置。
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

type uploadResponse struct {
	Data File `json:"data"`
}

// Upload 以 multipart 形式上传一个文件，成功时返回文件描述。
func (c *Client) Upload(ctx context.Context, filename, contentType string, data io.Reader) (File, error) {
	if !c.Configured() {
		return File{}, ErrNotConfigured
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, sanitizeFilename(filename))}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return File{}, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return File{}, err
	}
	if err := writer.Close(); err != nil {
		return File{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", strings.NewReader(body.String()))
	if err != nil {
		return File{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("asset store returned status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return File{}, err
	}
	if parsed.Data.ID == "" {
		return File{}, errors.New("asset store returned empty file id")
	}
	return parsed.Data, nil
}

// AssetURL 由文件描述拼出公开访问地址。
func (c *Client) AssetURL(file File) string {
	if file.FilenameDisk != "" {
		return fmt.Sprintf("%s/assets/%s", c.baseURL, file.FilenameDisk)
	}
	return fmt.Sprintf("%s/files/%s", c.baseURL, file.ID)
}

// Ping 检查资源库可达性，供健康检查使用。
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/server/ping", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset store ping returned status %d", resp.StatusCode)
	}
	return nil
}

// sanitizeFilename 去掉文件名中可能破坏 multipart 头的字符。
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(`"`, "", "\\", "", "\r", "", "\n", "", "/", "-")
	name = replacer.Replace(name)
	if name == "" {
		name = "upload"
	}
	return name
}
