package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// ListFiles fetches the complete current file collection. Callers replace
// their local collection wholesale; individual records are never patched.
func (c *Client) ListFiles(ctx context.Context) ([]FileRecord, error) {
	var files []FileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &files, true); err != nil {
		return nil, err
	}
	return files, nil
}

// ProgressFunc receives integer upload percentages in [0,100], computed from
// bytes-sent over bytes-total.
type ProgressFunc func(percent int)

// Upload sends one file as a progress-tracked multipart request and returns
// the created record.
func (c *Client) Upload(ctx context.Context, filename, contentType string, content []byte, progress ProgressFunc) (*FileRecord, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	body := newProgressReader(&buf, int64(buf.Len()), progress)
	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", body, writer.FormDataContentType(), true)
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(buf.Len())

	var record FileRecord
	if err := c.do(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Download retrieves a file's binary content. The filename is taken from the
// Content-Disposition header when the server provides one.
func (c *Client) Download(ctx context.Context, fileID int) (string, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/api/download/%d", fileID), nil, "", true)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	return dispositionFilename(resp.Header.Get("Content-Disposition")), data, nil
}

// DeleteFile removes one of the caller's files.
func (c *Client) DeleteFile(ctx context.Context, fileID int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/delete/%d", fileID), nil, nil, true)
}

type shareRequest struct {
	FileID int `json:"file_id"`
}

// Share creates (or returns the existing) public share link for a file.
func (c *Client) Share(ctx context.Context, fileID int) (*ShareInfo, error) {
	var info ShareInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/share", shareRequest{FileID: fileID}, &info, true); err != nil {
		return nil, err
	}
	return &info, nil
}

// RevokeShare invalidates a file's public share link.
func (c *Client) RevokeShare(ctx context.Context, fileID int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/share/%d", fileID), nil, nil, true)
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["filename"])
}

// progressReader reports integer percentages as the request body drains.
// With a known total the percentage is monotonically non-decreasing; a
// zero total leaves the last known value untouched.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	last   int
	report ProgressFunc
}

func newProgressReader(r io.Reader, total int64, report ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, last: -1, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.report != nil && p.total > 0 {
		p.sent += int64(n)
		percent := int(p.sent * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent > p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}
