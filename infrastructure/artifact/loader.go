package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

// artifactExt é a extensão dos artefatos diários
const artifactExt = ".json"

// DirectoryLoader lê artefatos diários de um diretório.
// Cada dono tem o subdiretório <root>/<ownerID>; sem ele, os arquivos de <root> são usados.
type DirectoryLoader struct {
	root string
}

func NewDirectoryLoader(root string) *DirectoryLoader {
	return &DirectoryLoader{root: root}
}

// List retorna os artefatos do dono em ordem de nome de arquivo
func (l *DirectoryLoader) List(ctx context.Context, ownerID string) ([]domain.ArtifactRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(l.root, ownerID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = l.root
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao listar artefatos em %s", dir)
	}

	refs := make([]domain.ArtifactRef, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), artifactExt) {
			continue
		}
		refs = append(refs, domain.ArtifactRef{
			ID:      strings.TrimSuffix(name, filepath.Ext(name)),
			OwnerID: ownerID,
			Path:    filepath.Join(dir, name),
		})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })

	logrus.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"directory": dir,
		"artifacts": len(refs),
	}).Debug("Artefatos encontrados")

	return refs, nil
}

// Load lê o conteúdo bruto do artefato
func (l *DirectoryLoader) Load(ctx context.Context, ref domain.ArtifactRef) (*domain.RawArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "erro ao ler artefato %s", ref.Path)
	}
	return &domain.RawArtifact{
		ID:      ref.ID,
		OwnerID: ref.OwnerID,
		Body:    body,
	}, nil
}

// RefFromPath monta a referência de um arquivo avulso, usada pelo replace-day
func RefFromPath(ownerID, path string) domain.ArtifactRef {
	name := filepath.Base(path)
	return domain.ArtifactRef{
		ID:      strings.TrimSuffix(name, filepath.Ext(name)),
		OwnerID: ownerID,
		Path:    path,
	}
}
