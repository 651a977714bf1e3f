package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// Forwarder пересылает запросы одному upstream-сервису.
type Forwarder struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Mount пересылает всё под prefix на upstream, отрезав prefix.
// /api/v1/projects/42/estimate -> {baseURL}/projects/42/estimate
func (f *Forwarder) Mount(prefix string) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := strings.TrimPrefix(c.Path(), prefix)
		target := f.baseURL + path
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}
		return f.forward(c, target)
	}
}

// To пересылает запрос на фиксированный путь upstream.
func (f *Forwarder) To(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return f.forward(c, f.baseURL+path)
	}
}

// forward проксирует любой метод с учетом multipart/raw.
func (f *Forwarder) forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	contentType := c.Get("Content-Type")
	var (
		req *http.Request
		err error
	)
	if strings.HasPrefix(contentType, "multipart/form-data") {
		req, err = f.multipartRequest(c, targetURL)
	} else {
		req, err = http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
		if err == nil && contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
	}
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if auth := c.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("X-Forwarded-For", c.IP())

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

// multipartRequest пересобирает форму: fiber уже разобрал тело запроса.
func (f *Forwarder) multipartRequest(c fiber.Ctx, targetURL string) (*http.Request, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart data: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", fileHeader.Filename, err)
			}

			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
			h.Set("Content-Type", fileHeader.Header.Get("Content-Type"))

			part, err := writer.CreatePart(h)
			if err == nil {
				_, err = io.Copy(part, file)
			}
			file.Close()
			if err != nil {
				return nil, fmt.Errorf("copy %s: %w", fileHeader.Filename, err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(c.Method(), targetURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
