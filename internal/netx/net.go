// Package netx holds small HTTP helpers that talk to object storage rather
// than to todoboard or the platform.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// UploadPresigned sends body to a presigned object storage URL. size is the
// exact body length; presigned PUTs reject chunked uploads.
func UploadPresigned(ctx context.Context, client *http.Client, method, url string, body io.Reader, size int64) error {
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
