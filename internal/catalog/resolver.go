package catalog

import (
	"context"
	"fmt"
	"strings"

	"i14yimport/internal/config"
	"i14yimport/internal/logger"
	"i14yimport/internal/util"
)

type Vocabulary string

const (
	VocabularyTheme        Vocabulary = "theme"
	VocabularyLicense      Vocabulary = "license"
	VocabularyAccessRights Vocabulary = "accessRights"
)

type Fetcher interface {
	FetchCodeList(ctx context.Context, conceptID string) ([]Entry, error)
}

// Resolver turns code list labels into codes for the duration of one import
// run. Remote vocabularies are downloaded on first use and kept until the
// resolver is dropped; a new run must use a new Resolver.
type Resolver struct {
	fetcher  Fetcher
	concepts map[Vocabulary]string
	cache    map[Vocabulary]Mapping
	warnings []string
}

func NewResolver(fetcher Fetcher, cfg config.Config) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		concepts: map[Vocabulary]string{
			VocabularyTheme:   cfg.ThemeConceptID,
			VocabularyLicense: cfg.LicenseConceptID,
		},
		cache: map[Vocabulary]Mapping{},
	}
}

func (r *Resolver) ResolveTheme(ctx context.Context, label string) (string, bool) {
	return r.resolveRemote(ctx, VocabularyTheme, label)
}

func (r *Resolver) ResolveLicense(ctx context.Context, label string) (string, bool) {
	return r.resolveRemote(ctx, VocabularyLicense, label)
}

func (r *Resolver) ResolveAccessRights(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if util.IsBlank(label) {
		return "", false
	}
	return accessRights.Lookup(label), true
}

// Mapping returns the vocabulary's lookup table. A download failure yields
// the fallback table together with the error; the failure is also recorded
// as a warning.
func (r *Resolver) Mapping(ctx context.Context, vocab Vocabulary) (Mapping, error) {
	if vocab == VocabularyAccessRights {
		return AccessRights(), nil
	}
	if m, ok := r.cache[vocab]; ok {
		return m, nil
	}

	seed := Mapping{}
	if vocab == VocabularyLicense {
		seed = licenseSeed
	}

	conceptID, ok := r.concepts[vocab]
	if !ok {
		return nil, fmt.Errorf("unknown vocabulary: %s", vocab)
	}

	entries, err := r.fetcher.FetchCodeList(ctx, conceptID)
	if err != nil {
		m := BuildMapping(nil, seed)
		r.cache[vocab] = m
		msg := fmt.Sprintf("%s code list unavailable, labels are passed through unchanged: %s", vocab, util.RedactSecrets(err.Error()))
		r.warnings = append(r.warnings, msg)
		logger.Warn("%s", msg)
		return m, err
	}

	m := BuildMapping(entries, seed)
	r.cache[vocab] = m
	logger.Debug("loaded %s code list concept=%s entries=%d", vocab, conceptID, len(entries))
	return m, nil
}

// Warnings lists code list failures seen so far, in order.
func (r *Resolver) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

func (r *Resolver) resolveRemote(ctx context.Context, vocab Vocabulary, label string) (string, bool) {
	label = strings.TrimSpace(label)
	if util.IsBlank(label) {
		return "", false
	}
	m, _ := r.Mapping(ctx, vocab)
	code := m.Lookup(label)
	if code == "" {
		return "", false
	}
	return code, true
}
