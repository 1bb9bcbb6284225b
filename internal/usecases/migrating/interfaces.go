package migrating

import (
	"context"

	"github.com/vfg2006/daylog-migrator/internal/domain"
)

// ArtifactSource define a origem dos artefatos diários de cada dono
type ArtifactSource interface {
	// List retorna os artefatos do dono na ordem de processamento
	List(ctx context.Context, ownerID string) ([]domain.ArtifactRef, error)
	// Load lê o conteúdo bruto de um artefato
	Load(ctx context.Context, ref domain.ArtifactRef) (*domain.RawArtifact, error)
}

//go:generate mockgen -source=interfaces.go -destination=mocks/interfaces.go -package=mocks

// Migrator é o contrato usado pelo agendador e pela CLI
type Migrator interface {
	Run(ctx context.Context) (*domain.BatchResult, error)
	RunOwner(ctx context.Context, owner domain.Owner) (*domain.MigrationRun, error)
	ReplaceDay(ctx context.Context, owner domain.Owner, ref domain.ArtifactRef) (*DayReplacement, error)
}
