package main

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/snabb/httpreaderat"

	bufra "github.com/avvmoto/buf-readerat"
)

type ResponseWrapper struct {
	*http.Response
	Text  string
	Bytes []byte
}

// creates a key that is unique to the given `http.Request` URL (including query parameters),
// hashed to an MD5 string.
// the result can be safely used as a filename.
func MakeCacheKey(r *http.Request) string {
	// inconsistent case and url params etc will cause cache misses
	key := r.URL.String()
	md5sum := md5.Sum([]byte(key))
	return hex.EncodeToString(md5sum[:])
}

// caches successful GET responses beneath `Dir`, one file per URL.
// only used for BeatSaver API metadata, never for zip downloads.
type FileCachingRequest struct {
	Dir       string
	Transport http.RoundTripper
}

// returns a path like "/home/user/.cache/bstools/711f20df1f76da140218e51445a6fc47"
func (x FileCachingRequest) CachePath(cache_key string) string {
	return filepath.Join(x.Dir, cache_key)
}

// reads the cached response as if it were the result of `httputil.Dumpresponse`,
// a status code, followed by a series of headers, followed by the response body.
func (x FileCachingRequest) ReadCacheEntry(cache_key string, req *http.Request) (*http.Response, error) {
	dumped_bytes, err := os.ReadFile(x.CachePath(cache_key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(dumped_bytes)), req)
}

func (x FileCachingRequest) transport() http.RoundTripper {
	if x.Transport == nil {
		return http.DefaultTransport
	}
	return x.Transport
}

func (x FileCachingRequest) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || x.Dir == "" {
		return x.transport().RoundTrip(req)
	}

	cache_key := MakeCacheKey(req)
	cache_path := x.CachePath(cache_key)
	cached_resp, err := x.ReadCacheEntry(cache_key, req)
	if err == nil {
		slog.Debug("cache HIT", "url", req.URL, "cache-path", cache_path)
		return cached_resp, nil
	}

	slog.Debug("cache MISS", "url", req.URL, "cache-path", cache_path, "error", err)

	resp, err := x.transport().RoundTrip(req)
	if err != nil {
		// do not cache error response, pass through
		return resp, err
	}

	if resp.StatusCode != 200 {
		// non-200 response, pass through
		slog.Debug("non-200 response, pass through", "code", resp.StatusCode)
		return resp, nil
	}

	err = os.MkdirAll(x.Dir, 0o755)
	if err != nil {
		slog.Warn("failed to create cache directory", "error", err)
		return resp, nil
	}

	dumped_bytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		slog.Warn("failed to dump response to bytes", "error", err)
		return resp, nil
	}

	err = os.WriteFile(cache_path, dumped_bytes, 0o644)
	if err != nil {
		slog.Warn("failed to write response to cache file", "error", err)
		return resp, nil
	}

	cached_resp, err = x.ReadCacheEntry(cache_key, req)
	if err != nil {
		slog.Warn("failed to read cache file", "error", err)
		return resp, nil
	}
	resp.Body.Close()
	return cached_resp, nil
}

// client trace to log whether the request's underlying tcp connection was re-used
func trace_context(ctx context.Context) context.Context {
	client_tracer := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			slog.Debug("HTTP connection reuse", "reused", info.Reused, "remote", info.Conn.RemoteAddr())
		},
	}
	return httptrace.WithClientTrace(ctx, client_tracer)
}

// GETs `url` with `client`, returning the whole body.
// a non-2xx response is not an error, callers inspect `StatusCode`.
func download(ctx context.Context, client *http.Client, url string) (ResponseWrapper, error) {
	slog.Debug("HTTP GET", "url", url)
	empty_response := ResponseWrapper{}

	req, err := http.NewRequestWithContext(trace_context(ctx), http.MethodGet, url, nil)
	if err != nil {
		return empty_response, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := client.Do(req)
	if err != nil {
		return empty_response, fmt.Errorf("failed to fetch '%s': %w", url, err)
	}
	defer resp.Body.Close()

	content_bytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty_response, fmt.Errorf("failed to read response body: %w", err)
	}

	return ResponseWrapper{
		Response: resp,
		Text:     string(content_bytes),
		Bytes:    content_bytes,
	}, nil
}

// calls `fn` on each file within the zipfile at `url` whose name matches `zipped_file_filter`.
// the zipfile is never downloaded as a whole,
// only the bytes of the central directory and the matching entries are requested.
func download_zip(ctx context.Context, client *http.Client, url string, zipped_file_filter func(string) bool, fn func(*zip.File) error) error {
	req, err := http.NewRequestWithContext(trace_context(ctx), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)

	// a 'readerat' is an implementation of the built-in Go interface `io.ReaderAt`,
	// that provides a means to jump around within the bytes of a remote file using
	// HTTP Range requests.
	http_readerat, err := httpreaderat.New(client, req, nil)
	if err != nil {
		return fmt.Errorf("failed to create a HTTPReaderAt: %w", err)
	}

	// a 'buffered readerat' remembers the bytes read of a `io.ReaderAt` implementation,
	// reducing the number of future reads when the bytes have already been read.
	buffer_size := 1024 * 1024 // 1MiB
	buffered_http_readerat := bufra.NewBufReaderAt(http_readerat, buffer_size)
	zip_rdr, err := zip.NewReader(buffered_http_readerat, http_readerat.Size())
	if err != nil {
		return fmt.Errorf("failed to create a zip reader: %w", err)
	}

	for _, zipped_file_entry := range zip_rdr.File {
		if !zipped_file_filter(zipped_file_entry.Name) {
			continue
		}
		slog.Debug("found zipped file name match", "filename", zipped_file_entry.Name)
		err = fn(zipped_file_entry)
		if err != nil {
			return err
		}
	}

	return nil
}
