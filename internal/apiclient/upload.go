package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Uploaded photos are immutable; cache them client-side for a year.
const uploadCacheControl = "private,max-age=31536000,must-revalidate"

type uploadTarget struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadPhoto performs the two-step photo upload: request a signed upload
// destination, then PUT the bytes directly to it. It returns the public URL
// of the uploaded asset. Failure at either step propagates.
func (c *Client) UploadPhoto(ctx context.Context, contentType, filename string, payload io.Reader) (string, error) {
	var target uploadTarget
	err := c.do(ctx, http.MethodPost, "/identity/photo", map[string]string{
		"contentType": contentType,
		"filename":    filename,
	}, &target)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", uploadCacheControl)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(res.Body)
		c.logger.Error("photo upload rejected", zap.Int("status", res.StatusCode), zap.ByteString("body", raw))
		return "", fmt.Errorf("photo upload failed with status %d", res.StatusCode)
	}

	return c.photosDomain + "/" + target.Filename, nil
}
