package domain

// ArtifactRef aponta para um artefato diário ainda não lido
type ArtifactRef struct {
	ID      string
	OwnerID string
	Path    string
}

// RawArtifact é o conteúdo bruto de um artefato diário
type RawArtifact struct {
	ID       string
	OwnerID  string
	Timezone string
	Body     []byte
}

// Owner é um dono de dados configurado para migração
type Owner struct {
	ID       string
	Timezone string
}
