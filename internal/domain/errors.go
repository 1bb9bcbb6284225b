package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass classifica falhas da migração
type ErrorClass string

const (
	ClassParse      ErrorClass = "parse"
	ClassValidation ErrorClass = "validation"
	ClassWrite      ErrorClass = "write"
	ClassFatal      ErrorClass = "fatal"
)

var (
	// Erros recuperados localmente e agregados no resumo da execução
	ErrParse      = errors.New("artifact could not be parsed")
	ErrValidation = errors.New("optional field is invalid")
	ErrWrite      = errors.New("record write failed")

	// Erros que abortam a execução
	ErrFatal            = errors.New("migration aborted")
	ErrStoreUnavailable = errors.New("persistence store unavailable")
	ErrInvalidConfig    = errors.New("invalid migration configuration")

	// Erros de controle de execução
	ErrRunInProgress     = errors.New("a migration run is already in progress for this owner")
	ErrInvalidTransition = errors.New("invalid run status transition")
)

func (c ErrorClass) sentinel() error {
	switch c {
	case ClassParse:
		return ErrParse
	case ClassValidation:
		return ErrValidation
	case ClassWrite:
		return ErrWrite
	default:
		return ErrFatal
	}
}

// MigrationError é um erro com o contexto do artefato e do registro envolvidos
type MigrationError struct {
	Class      ErrorClass
	ArtifactID string
	Kind       EntityKind
	Field      string
	Err        error
}

// Error implementa a interface error
func (e *MigrationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Class))
	if e.ArtifactID != "" {
		fmt.Fprintf(&b, " artifact=%s", e.ArtifactID)
	}
	if e.Kind != "" {
		fmt.Fprintf(&b, " kind=%s", e.Kind)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field=%s", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap retorna o erro subjacente
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, ErrParse) e semelhantes pela classe
func (e *MigrationError) Is(target error) bool {
	return target == e.Class.sentinel()
}

func NewParseError(artifactID string, err error) *MigrationError {
	return &MigrationError{Class: ClassParse, ArtifactID: artifactID, Err: err}
}

func NewWriteError(artifactID string, kind EntityKind, err error) *MigrationError {
	return &MigrationError{Class: ClassWrite, ArtifactID: artifactID, Kind: kind, Err: err}
}

func NewFatalError(err error) *MigrationError {
	return &MigrationError{Class: ClassFatal, Err: err}
}

// IsFatal indica se o erro deve abortar a execução
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal) || errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrInvalidConfig)
}

// ValidationWarning registra um campo opcional inválido que foi substituído pelo padrão
type ValidationWarning struct {
	Section string
	Field   string
	Message string
}

func (w ValidationWarning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("%s: %s", w.Section, w.Message)
	}
	return fmt.Sprintf("%s.%s: %s", w.Section, w.Field, w.Message)
}

// Error permite tratar o aviso como erro da classe validation
func (w ValidationWarning) Error() string {
	return w.String()
}

func (w ValidationWarning) Is(target error) bool {
	return target == ErrValidation
}

func isClass(err error, sentinel error) bool {
	return errors.Is(err, sentinel)
}
