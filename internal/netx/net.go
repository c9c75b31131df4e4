package netx

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Part is one file part of a multipart upload.
type Part struct {
	Field    string
	Filename string
	Body     io.Reader
}

// PostMultipart streams fields and the file part to url as
// multipart/form-data and returns the response status and body. Non-2xx
// statuses are not errors; the caller decides what they mean.
func PostMultipart(ctx context.Context, client *http.Client, url string, fields map[string]string, file Part, header http.Header) (int, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeForm(mw, fields, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		pr.Close()
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, b, nil
}

func writeForm(mw *multipart.Writer, fields map[string]string, file Part) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, file.Body); err != nil {
		return err
	}
	return mw.Close()
}
