package checkpoint

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type RecoveryFile struct {
	file    afero.File
	fwriter *bufio.Writer
	path    string
}

// NewRecoveryFile writes into a temporary file next to path. Save moves it in place.
func NewRecoveryFile(fs afero.Fs, path string) (*RecoveryFile, error) {
	if err := fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("create dst dir %v: %w", filepath.Dir(path), err)
	}
	tmpf, err := afero.TempFile(fs, filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%w: create tmp file", err)
	}
	return &RecoveryFile{
		file:    tmpf,
		fwriter: bufio.NewWriter(tmpf),
		path:    path,
	}, nil
}

func (rf *RecoveryFile) Write(p []byte) (int, error) {
	return rf.fwriter.Write(p)
}

func (rf *RecoveryFile) Save(fs afero.Fs) error {
	defer rf.file.Close()
	if err := rf.fwriter.Flush(); err != nil {
		return fmt.Errorf("flush tmp file: %w", err)
	}
	if err := rf.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync tmp file", err)
	}
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("%w: close tmp file", err)
	}
	if err := fs.Rename(rf.file.Name(), rf.path); err != nil {
		return fmt.Errorf("%w: rename tmp file %v to %v", err, rf.file.Name(), rf.path)
	}
	return nil
}

// Discard removes the temporary file.
func (rf *RecoveryFile) Discard(fs afero.Fs) {
	rf.file.Close()
	fs.Remove(rf.file.Name())
}

func ValidateSchema(data []byte) error {
	sch, err := jsonschema.CompileString(schemaFile, Schema)
	if err != nil {
		return fmt.Errorf("compile checkpoint json schema: %w", err)
	}
	var v any
	if err = json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal checkpoint data: %w", ErrInvalid, err)
	}
	if err = sch.Validate(v); err != nil {
		return fmt.Errorf("%w: validate checkpoint data: %w", ErrInvalid, err)
	}
	return nil
}

func CopyFile(fs afero.Fs, src, dst string) error {
	f, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	return writeFile(fs, f, dst)
}

func writeFile(fs afero.Fs, r io.Reader, dst string) error {
	rf, err := NewRecoveryFile(fs, dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(rf, r); err != nil {
		rf.Discard(fs)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return rf.Save(fs)
}

// A wrapper around zap.Logger to make it compatible with
// retryablehttp.LeveledLogger interface.
type retryableHttpLogger struct {
	inner *zap.Logger
}

func (r retryableHttpLogger) Error(format string, args ...any) {
	r.inner.Sugar().Errorw(format, args...)
}

func (r retryableHttpLogger) Info(format string, args ...any) {
	r.inner.Sugar().Infow(format, args...)
}

func (r retryableHttpLogger) Warn(format string, args ...any) {
	r.inner.Sugar().Warnw(format, args...)
}

func (r retryableHttpLogger) Debug(format string, args ...any) {
	r.inner.Sugar().Debugw(format, args...)
}

func newClient(logger *zap.Logger, cfg Config) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient:   http.DefaultClient,
		Logger:       retryableHttpLogger{inner: logger},
		RetryMax:     cfg.RetryMax,
		RetryWaitMin: cfg.RetryDelay,
		RetryWaitMax: 2 * cfg.RetryDelay,
		Backoff:      retryablehttp.LinearJitterBackoff,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
	}
}

func httpToLocalFile(ctx context.Context, client *retryablehttp.Client, resource *url.URL, fs afero.Fs, dst string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, resource.String(), nil)
	if err != nil {
		return fmt.Errorf("create request %s: %w", resource, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", resource, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %s", resource, resp.Status)
	}
	return writeFile(fs, resp.Body, dst)
}
