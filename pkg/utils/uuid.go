package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// runIDLength é maior que o id padrão porque execuções se acumulam indefinidamente
const runIDLength = 12

func GenerateID() (string, error) {
	return gonanoid.Generate(characters, 6)
}

// GenerateRunID gera o identificador de uma execução de migração
func GenerateRunID() (string, error) {
	return gonanoid.Generate(characters, runIDLength)
}
