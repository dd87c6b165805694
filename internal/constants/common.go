package constants

// Common string constants used throughout the codebase
const (
	// Service name reported in structured logs
	ServiceName = "authority-proxy"

	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment  = "prod"
	DevEnvironment   = "dev"
	LocalEnvironment = "local"

	// Delegation steps, used as log and plan labels
	StepCreate = "create_metadata_accounts_v3"
	StepUpdate = "update_metadata_accounts_v2"
)

// Error messages used throughout the API handlers
const (
	InvalidMintAddress       = "invalid mint address"
	InvalidRequestBody       = "invalid request body"
	MintWrapperNotFound      = "mint wrapper not found"
	FailedToBuildPlan        = "failed to build delegation plan"
	FailedToBuildTransaction = "failed to build delegation transaction"
)
