package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultContentType = "application/octet-stream"

// Bucket stores objects under {folder}/{uuid}-{filename} and exposes them at
// {publicURL}/{bucket}/{key}.
type Bucket struct {
	driver    Driver
	name      string
	publicURL *url.URL
}

// NewBucket wraps driver. publicURL is the base every object URL is built on.
func NewBucket(driver Driver, name, publicURL string) (*Bucket, error) {
	if name == "" {
		return nil, fmt.Errorf("bucket name required")
	}
	base, err := url.Parse(strings.TrimRight(publicURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid public url %q", publicURL)
	}
	return &Bucket{driver: driver, name: name, publicURL: base}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Upload streams r into folder under a fresh name and returns its public URL.
func (b *Bucket) Upload(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := ObjectKey(folder, filename)
	if contentType == "" {
		contentType = defaultContentType
	}

	if err := b.driver.Put(ctx, key, r, size, contentType); err != nil {
		return "", &WriteError{Key: key, Err: err}
	}

	logrus.WithFields(logrus.Fields{"key": key, "size": size}).Debug("Object uploaded")
	return b.URLFor(key), nil
}

// Delete removes the object referenced by objectURL. A missing object is
// reported as a DeleteError wrapping ErrObjectNotFound.
func (b *Bucket) Delete(ctx context.Context, objectURL string) error {
	key, err := b.KeyFromURL(objectURL)
	if err != nil {
		return &DeleteError{Err: err}
	}
	if err := b.driver.Remove(ctx, key); err != nil {
		return &DeleteError{Key: key, Err: err}
	}

	logrus.WithField("key", key).Debug("Object deleted")
	return nil
}

// DeleteKey removes an object by key.
func (b *Bucket) DeleteKey(ctx context.Context, key string) error {
	if err := b.driver.Remove(ctx, key); err != nil {
		return &DeleteError{Key: key, Err: err}
	}
	return nil
}

// Exists reports whether the object referenced by objectURL is stored.
func (b *Bucket) Exists(ctx context.Context, objectURL string) (bool, error) {
	key, err := b.KeyFromURL(objectURL)
	if err != nil {
		return false, err
	}
	_, err = b.driver.Stat(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

// List returns the objects stored in folder.
func (b *Bucket) List(ctx context.Context, folder string) ([]Object, error) {
	prefix := strings.Trim(folder, "/") + "/"
	objs, err := b.driver.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
	}
	return objs, nil
}

// URLFor returns the public URL of key.
func (b *Bucket) URLFor(key string) string {
	u := *b.publicURL
	u.RawPath = ""
	u.Path = strings.TrimRight(b.publicURL.Path, "/") + "/" + b.name + "/" + key
	return u.String()
}

// KeyFromURL derives the object key from a URL produced by URLFor. Only the
// bucket-relative path is matched, so URLs issued under an earlier public
// host or base path still resolve.
func (b *Bucket) KeyFromURL(objectURL string) (string, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidObjectURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidObjectURL, objectURL)
	}

	segment := "/" + b.name + "/"
	key, ok := strings.CutPrefix(u.Path, strings.TrimRight(b.publicURL.Path, "/")+segment)
	if !ok {
		i := strings.Index(u.Path, segment)
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
		}
		key = u.Path[i+len(segment):]
	}
	if key == "" || path.Base(key) == "." {
		return "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}
	return key, nil
}

// ObjectKey builds {folder}/{uuid}-{filename}. Only the base name of filename
// is kept so client supplied paths cannot escape the folder.
func ObjectKey(folder, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s-%s", strings.Trim(folder, "/"), uuid.NewString(), name)
}
