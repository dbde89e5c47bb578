package nfe

import (
	"errors"
	"fmt"
)

// CredentialError certificado ausente, vacío, contraseña incorrecta o bundle malformado.
// Fatal: la construcción del servicio falla.
type CredentialError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	msg := fmt.Sprintf("nfe: credencial %q: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CredentialError) Unwrap() error { return e.Err }

// BuildError campo obligatorio ausente o inválido. El caller corrige la entrada; nunca se reintenta.
type BuildError struct {
	Field  string
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("nfe: campo %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// NewBuildError atajo para BuildError sin causa.
func NewBuildError(field, reason string) *BuildError {
	return &BuildError{Field: field, Reason: reason}
}

// SigningError firma intentada sin credenciales válidas o fallo del proceso de firma.
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	msg := "nfe: firma: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SigningError) Unwrap() error { return e.Err }

// UnsupportedRegionError no hay endpoint de autorização para la UF/ambiente.
type UnsupportedRegionError struct {
	StateCode  string
	Production bool
}

func (e *UnsupportedRegionError) Error() string {
	env := "homologação"
	if e.Production {
		env = "produção"
	}
	return fmt.Sprintf("nfe: UF %s sin web service de autorização configurado (%s)", e.StateCode, env)
}

// TransmissionError falla de transporte/protocolo. El transmisor la reporta como
// TransmissionResult con estado erro; este tipo solo viaja dentro del mensaje.
type TransmissionError struct {
	Op  string
	Err error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("nfe: transmisión (%s): %v", e.Op, e.Err)
}

func (e *TransmissionError) Unwrap() error { return e.Err }

// IsBuildError indica si err (o alguna causa) es un BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
