package manifest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/moz-infra/toppicks-crawler/internal/storage"
)

const (
	namePrefix  = "top_picks_"
	nameLayout  = "20060102150405"
	contentType = "application/json"
)

// ErrNoManifest is returned by Latest when nothing has been published yet.
var ErrNoManifest = errors.New("no manifest published")

// Publisher writes versioned manifests to the object store. Every upload
// gets a fresh timestamped name; consumers read the lexically latest one.
type Publisher struct {
	store  storage.ObjectStore
	now    func() time.Time
	logger *zap.Logger
}

func NewPublisher(store storage.ObjectStore, logger *zap.Logger) *Publisher {
	return &Publisher{store: store, now: time.Now, logger: logger}
}

// Publish uploads the manifest under a new timestamped name. When the
// content matches the latest published manifest the upload is skipped and
// the existing object name is returned with published=false.
func (p *Publisher) Publish(ctx context.Context, m Manifest) (name string, published bool, err error) {
	data, err := m.Encode()
	if err != nil {
		return "", false, err
	}

	if latestName, latestData, err := p.store.LatestMatching(ctx, namePrefix); err != nil {
		p.logger.Warn("could not read latest manifest, publishing anyway", zap.Error(err))
	} else if latestName != "" && Equal(latestData, data) {
		p.logger.Info("manifest unchanged, skipping publish", zap.String("object", latestName))
		return latestName, false, nil
	}

	name = fmt.Sprintf("%s%s.json", namePrefix, p.now().UTC().Format(nameLayout))
	if _, err := p.store.Upload(ctx, name, contentType, data, true); err != nil {
		return "", false, fmt.Errorf("uploading manifest %s: %w", name, err)
	}
	p.logger.Info("manifest published",
		zap.String("object", name), zap.Int("domains", len(m.Domains)))
	return name, true, nil
}

// Latest fetches the most recently published manifest.
func (p *Publisher) Latest(ctx context.Context) (string, Manifest, error) {
	name, data, err := p.store.LatestMatching(ctx, namePrefix)
	if err != nil {
		return "", Manifest{}, fmt.Errorf("listing manifests: %w", err)
	}
	if name == "" {
		return "", Manifest{}, ErrNoManifest
	}
	m, err := Decode(data)
	if err != nil {
		return "", Manifest{}, err
	}
	return name, m, nil
}
