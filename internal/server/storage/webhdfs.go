package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

// WebHDFS writes files through the WebHDFS REST API. A write is the
// two-step CREATE: the namenode answers with a redirect to a datanode which
// then receives the content.
type WebHDFS struct {
	baseURL    string
	user       string
	httpClient *http.Client
}

// NewWebHDFS returns a writer for the namenode at baseURL acting as user.
// A nil client gets a default with a 5 minute timeout. Redirects are never
// followed automatically since the body must go to the datanode.
func NewWebHDFS(baseURL, user string, client *http.Client) *WebHDFS {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &WebHDFS{baseURL: baseURL, user: user, httpClient: &c}
}

func (h *WebHDFS) buildURL(p, op string, params map[string]string) (string, error) {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse webhdfs url")
	}
	u.Path = "/webhdfs/v1" + p

	q := u.Query()
	q.Set("op", op)
	if h.user != "" {
		q.Set("user.name", h.user)
	}
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Write implements Writer.
func (h *WebHDFS) Write(ctx context.Context, dir, filename string, body io.Reader, size int64) error {
	p, err := objectPath(dir, filename)
	if err != nil {
		return err
	}

	location, err := h.createLocation(ctx, p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "webhdfs write %s", p), ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return remoteError(resp, "write "+p)
	}
	return nil
}

// createLocation asks the namenode where to send the content of p.
func (h *WebHDFS) createLocation(ctx context.Context, p string) (string, error) {
	reqURL, err := h.buildURL(p, "CREATE", map[string]string{"overwrite": "true"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "webhdfs create %s", p), ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTemporaryRedirect, http.StatusFound, http.StatusSeeOther:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", errors.Newf("webhdfs create %s: redirect without location", p)
		}
		return loc, nil
	case http.StatusOK:
		// noredirect=true style answer: {"Location":"..."}
		var out struct {
			Location string `json:"Location"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Location == "" {
			return "", errors.Newf("webhdfs create %s: no datanode location", p)
		}
		return out.Location, nil
	default:
		return "", remoteError(resp, "create "+p)
	}
}

// remoteError decodes a WebHDFS RemoteException body into an error marked
// with the matching storage sentinel.
func remoteError(resp *http.Response, what string) error {
	var payload struct {
		RemoteException struct {
			Exception string `json:"exception"`
			Message   string `json:"message"`
		} `json:"RemoteException"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := string(b)
	if json.Unmarshal(b, &payload) == nil && payload.RemoteException.Message != "" {
		msg = payload.RemoteException.Exception + ": " + payload.RemoteException.Message
	}

	err := errors.Newf("webhdfs %s: status %d: %s", what, resp.StatusCode, msg)
	switch resp.StatusCode {
	case http.StatusForbidden:
		return errors.Mark(err, ErrPermissionDenied)
	case http.StatusUnauthorized:
		return errors.Mark(err, ErrAuthInvalid)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return errors.Mark(err, ErrUnavailable)
	default:
		return err
	}
}
