package agent

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sensewear/sensewear-core/internal/credential"
	"github.com/sensewear/sensewear-core/internal/enrollment"
)

// ErrPackagingFailed is returned when the agent bundle cannot be built.
var ErrPackagingFailed = errors.New("agent: packaging failed")

// configFileName is the credential file placed inside the bundle.
// The agent firmware reads it on first boot.
const configFileName = "deviceConfig.json"

// bundleFilePermissions restricts the zip on disk; it carries secrets.
const bundleFilePermissions = 0600

// Config is the provisioning payload embedded in the bundle.
type Config struct {
	DeviceID     string    `json:"device_id"`
	DeviceType   string    `json:"device_type"`
	Tenant       string    `json:"tenant"`
	Owner        string    `json:"owner"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expires_at"`
	MQTTBroker   string    `json:"mqtt_broker"`
}

// Bundle is a packaged agent archive on disk.
//
// Bundles contain device credentials and exist only for the duration
// of one download: callers must defer Remove() before streaming it.
type Bundle struct {
	Path string
	Size int64
}

// Remove deletes the bundle from disk. Safe to call more than once.
func (b *Bundle) Remove() error {
	if b == nil || b.Path == "" {
		return nil
	}
	err := os.Remove(b.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing agent bundle: %w", err)
	}
	b.Path = ""
	return nil
}

// Packager builds downloadable agent bundles: the static agent
// template plus a generated per-device credential file, zipped.
type Packager struct {
	templateDir string
	workDir     string
}

// NewPackager creates a Packager.
//
// templateDir holds the static agent payload shipped to every device;
// workDir is where finished bundles are staged before download.
func NewPackager(templateDir, workDir string) *Packager {
	return &Packager{
		templateDir: templateDir,
		workDir:     workDir,
	}
}

// Package builds the agent bundle for one provisioned device.
//
// The zip contains every file from the template directory plus the
// generated deviceConfig.json. On any failure the partial archive is
// deleted before returning.
func (p *Packager) Package(identity enrollment.Identity, owner, tenant, broker string, cred credential.AccessCredential) (*Bundle, error) {
	if err := os.MkdirAll(p.workDir, 0750); err != nil {
		return nil, fmt.Errorf("%w: creating work directory: %w", ErrPackagingFailed, err)
	}

	path := filepath.Join(p.workDir, fmt.Sprintf("agent_%s_%s.zip", identity.Type, identity.ID))
	bundle, err := p.build(path, identity, owner, tenant, broker, cred)
	if err != nil {
		// Never leave a half-written credential archive behind.
		os.Remove(path)
		return nil, err
	}
	return bundle, nil
}

// build writes the archive. Split out so Package can clean up on error.
func (p *Packager) build(path string, identity enrollment.Identity, owner, tenant, broker string, cred credential.AccessCredential) (*Bundle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, bundleFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("%w: creating archive: %w", ErrPackagingFailed, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	if err := p.addTemplate(zw); err != nil {
		zw.Close()
		return nil, err
	}

	cfg := Config{
		DeviceID:     identity.ID,
		DeviceType:   identity.Type,
		Tenant:       tenant,
		Owner:        owner,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Scope:        cred.Scope,
		ExpiresAt:    cred.ExpiresAt,
		MQTTBroker:   broker,
	}
	if err := addConfig(zw, cfg); err != nil {
		zw.Close()
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalising archive: %w", ErrPackagingFailed, err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("%w: flushing archive: %w", ErrPackagingFailed, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPackagingFailed, err)
	}

	return &Bundle{Path: path, Size: info.Size()}, nil
}

// addTemplate copies every template file into the archive, preserving
// relative paths. A missing template directory is a configuration
// error, not an empty bundle.
func (p *Packager) addTemplate(zw *zip.Writer) error {
	root := os.DirFS(p.templateDir)

	found := false
	err := fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		found = true

		src, err := root.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := zw.Create(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: copying agent template: %w", ErrPackagingFailed, err)
	}
	if !found {
		return fmt.Errorf("%w: agent template directory %s is empty", ErrPackagingFailed, p.templateDir)
	}
	return nil
}

// addConfig writes the generated credential file into the archive.
func addConfig(zw *zip.Writer, cfg Config) error {
	dst, err := zw.Create(configFileName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPackagingFailed, err)
	}

	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("%w: encoding device config: %w", ErrPackagingFailed, err)
	}
	return nil
}
