package registry

import "errors"

// Rejections mirror the metadata program's own error names.
var (
	ErrIncorrectProgramID       = errors.New("IncorrectOwner: instruction is not addressed to the metadata program")
	ErrMissingSignature         = errors.New("MissingRequiredSignature: a required signer did not sign")
	ErrInvalidAccountLayout     = errors.New("NotEnoughAccountKeys: account list does not match the instruction layout")
	ErrAccountNotWritable       = errors.New("ExpectedWritableAccount: metadata account must be writable")
	ErrInvalidMetadataKey       = errors.New("InvalidMetadataKey: metadata account is not derived from the mint")
	ErrAlreadyInitialized       = errors.New("AlreadyInitialized: metadata account already exists")
	ErrUninitialized            = errors.New("Uninitialized: metadata account does not exist")
	ErrUpdateAuthorityIncorrect = errors.New("UpdateAuthorityIncorrect: signer is not the update authority")
	ErrDataIsImmutable          = errors.New("DataIsImmutable: metadata record is immutable")
)
