package service

import (
	"dirigia/internal/apperr"
)

// Messages returned to the client.
const (
	MsgProfileNotFound  = "Perfil não encontrado."
	MsgResourceNotFound = "Recurso não encontrado."
	MsgPremiumRequired  = "Recurso disponível apenas para assinantes."
	MsgLimitReached     = "Limite de recursos do plano gratuito atingido. Assine para continuar."
	MsgNotAFine         = "O documento enviado não foi identificado como uma multa de trânsito."
	MsgStorageDisabled  = "Armazenamento de arquivos indisponível."
)

func persistence(err error) error {
	return apperr.Wrap(apperr.KindPersistence, apperr.GenericMessage, err)
}

func validation(msg string) error {
	return apperr.New(apperr.KindValidation, msg)
}
