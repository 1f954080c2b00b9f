package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// Ensure ModelService implements the interface.
var _ driving.ModelService = (*ModelService)(nil)

// File signatures of the supported model formats.
var (
	stepSignature = []byte("ISO-10303-21")
	vrmlSignature = []byte("#VRML")
)

// signatureWindow is how far into a payload the signature may appear.
const signatureWindow = 512

var (
	errEmptyPayload = errors.New("empty payload")
	errBadSignature = errors.New("unrecognised file signature")
)

// ModelService downloads and validates 3-D models.
type ModelService struct {
	fetcher    driven.AssetFetcher
	transcoder driven.ModelTranscoder
}

// NewModelService creates a model resolver. The transcoder is optional;
// without it OBJ payloads for VRML refs are rejected.
func NewModelService(fetcher driven.AssetFetcher, transcoder driven.ModelTranscoder) *ModelService {
	return &ModelService{fetcher: fetcher, transcoder: transcoder}
}

// Resolve downloads every ref, keeping at most one asset per format.
// Each failure becomes a warning and the ref is skipped.
func (s *ModelService) Resolve(ctx context.Context, sourceID string, refs []domain.ModelRef) ([]domain.LocalAsset, []string) {
	var (
		assets   []domain.LocalAsset
		warnings []string
		seen     = make(map[domain.ModelFormat]bool)
	)
	for _, ref := range refs {
		if seen[ref.Format] {
			continue
		}
		asset, err := s.resolve(ctx, sourceID, ref)
		if err != nil {
			assetErr := &domain.AssetError{URL: ref.URL, Err: err}
			logger.Warnw("3-D model skipped", "part", sourceID, "format", ref.Format, "error", assetErr)
			warnings = append(warnings, fmt.Sprintf("%s model: %v", ref.Format, assetErr))
			continue
		}
		seen[ref.Format] = true
		assets = append(assets, asset)
	}
	return assets, warnings
}

func (s *ModelService) resolve(ctx context.Context, sourceID string, ref domain.ModelRef) (domain.LocalAsset, error) {
	ext := ref.Format.Extension()
	if ext == "" {
		return domain.LocalAsset{}, fmt.Errorf("unsupported model format %q", ref.Format)
	}
	if s.fetcher == nil {
		return domain.LocalAsset{}, errors.New("no asset fetcher configured")
	}

	data, err := s.fetcher.Download(ctx, ref.URL)
	if err != nil {
		return domain.LocalAsset{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.LocalAsset{}, errEmptyPayload
	}

	switch ref.Format {
	case domain.ModelFormatSTEP:
		if !hasSignature(data, stepSignature) {
			return domain.LocalAsset{}, errBadSignature
		}
	case domain.ModelFormatVRML:
		if !hasSignature(data, vrmlSignature) {
			if s.transcoder == nil {
				return domain.LocalAsset{}, errBadSignature
			}
			data, err = s.transcoder.ToVRML(data)
			if err != nil {
				return domain.LocalAsset{}, fmt.Errorf("transcode to vrml: %w", err)
			}
		}
	}

	return domain.LocalAsset{
		Format:    ref.Format,
		FileName:  domain.NormalizeIdentifier(sourceID) + ext,
		Data:      data,
		SourceURL: ref.URL,
	}, nil
}

func hasSignature(data, sig []byte) bool {
	head := data
	if len(head) > signatureWindow {
		head = head[:signatureWindow]
	}
	return bytes.Contains(head, sig)
}
