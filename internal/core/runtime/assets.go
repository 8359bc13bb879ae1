package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/asynkron/pakebuild/pkg/fetch"
)

// AssetFetcher downloads the icon, tray icon and inject script into Dir.
type AssetFetcher struct {
	Dir     string
	Options fetch.Options
	Logger  Logger
	Metrics Metrics
}

// FetchAll downloads every asset configured in o. Any failure aborts the
// build.
func (f *AssetFetcher) FetchAll(ctx context.Context, o BuildOptions) (Assets, error) {
	var assets Assets

	if o.IconURL != "" {
		path, err := f.fetchImage(ctx, "icon", o.IconURL, "unknown_icon_file", "icon")
		if err != nil {
			return Assets{}, err
		}
		assets.Icon = path
	}

	if o.SystemTrayIconURL != "" {
		path, err := f.fetchImage(ctx, "system tray icon", o.SystemTrayIconURL, "unknown_system_icon_file", "tray-icon")
		if err != nil {
			return Assets{}, err
		}
		assets.TrayIcon = path
	}

	if o.InjectURL != "" {
		path, err := f.download(ctx, "inject file", o.InjectURL, "inject.js")
		if err != nil {
			return Assets{}, err
		}
		assets.Inject = append(assets.Inject, path)
	}

	return assets, nil
}

// fetchImage downloads url under a neutral name, sniffs its type and copies
// it to base.<ext> next to it.
func (f *AssetFetcher) fetchImage(ctx context.Context, label, url, tmpName, base string) (string, error) {
	path, err := f.download(ctx, label, url, tmpName)
	if err != nil {
		return "", err
	}

	ext, err := fetch.InferExtname(path)
	if err != nil {
		return "", err
	}
	target := filepath.Join(filepath.Dir(path), base+"."+ext)
	if err := copyFile(path, target); err != nil {
		return "", err
	}
	f.Logger.Info(ctx, label+" file ready", Field("file", filepath.Base(target)))
	return target, nil
}

func (f *AssetFetcher) download(ctx context.Context, label, url, name string) (string, error) {
	f.Logger.Info(ctx, "downloading "+label, Field("url", url))

	opts := f.Options
	retries := 0
	onRetry := opts.OnRetry
	opts.OnRetry = func(attempt int, err error) {
		retries++
		f.Logger.Warn(ctx, "retry download", Field("asset", label), Field("attempt", attempt), Field("error", err.Error()))
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	started := time.Now()
	path, err := fetch.Download(ctx, filepath.Join(f.Dir, name), url, opts)
	if err != nil {
		attempts := retries + 1
		var dlErr *fetch.DownloadError
		if errors.As(err, &dlErr) {
			attempts = dlErr.Attempts
		}
		f.Metrics.RecordDownload(label, attempts, 0, time.Since(started), false)
		return "", err
	}

	var size int64
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}
	f.Metrics.RecordDownload(label, retries+1, size, time.Since(started), true)
	f.Logger.Info(ctx, "download "+label+" completed", Field("path", path))
	return path, nil
}
