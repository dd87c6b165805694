package handlers

import (
	"fmt"
	"net/http"

	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/cyphera/authority-proxy/internal/services"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
)

// DelegationHandler handles delegation-related operations
type DelegationHandler struct {
	service DelegationService
}

// DelegationRequest names the wrapper, its minter and the new update authority
type DelegationRequest struct {
	MintWrapper        string `json:"mint_wrapper" binding:"required"`
	MinterAuthority    string `json:"minter_authority" binding:"required"`
	NewUpdateAuthority string `json:"new_update_authority" binding:"required"`
	TokenMint          string `json:"token_mint,omitempty"`
}

// NewDelegationHandler creates a new DelegationHandler instance
func NewDelegationHandler(service DelegationService) *DelegationHandler {
	return &DelegationHandler{service: service}
}

// PlanDelegation godoc
// @Summary Plan a delegation
// @Description Replays the delegation against current chain state and lists the inner metadata calls
// @Tags delegations
// @Accept json
// @Produce json
// @Param request body DelegationRequest true "Delegation request"
// @Success 200 {object} services.Plan
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /delegations/plan [post]
func (h *DelegationHandler) PlanDelegation(c *gin.Context) {
	params, ok := bindDelegationRequest(c)
	if !ok {
		return
	}

	plan, err := h.service.Plan(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err, constants.FailedToBuildPlan)
		return
	}

	sendSuccess(c, http.StatusOK, plan)
}

// BuildDelegationTransaction godoc
// @Summary Build a delegation transaction
// @Description Returns the unsigned proxy transaction with the minter authority as fee payer
// @Tags delegations
// @Accept json
// @Produce json
// @Param request body DelegationRequest true "Delegation request"
// @Success 200 {object} services.UnsignedTransaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /delegations/transaction [post]
func (h *DelegationHandler) BuildDelegationTransaction(c *gin.Context) {
	params, ok := bindDelegationRequest(c)
	if !ok {
		return
	}

	tx, err := h.service.BuildTransaction(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err, constants.FailedToBuildTransaction)
		return
	}

	sendSuccess(c, http.StatusOK, tx)
}

func bindDelegationRequest(c *gin.Context) (services.PlanParams, bool) {
	var req DelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, constants.InvalidRequestBody, err)
		return services.PlanParams{}, false
	}

	params, err := req.toParams()
	if err != nil {
		sendError(c, http.StatusBadRequest, constants.InvalidRequestBody, err)
		return services.PlanParams{}, false
	}
	return params, true
}

func (r DelegationRequest) toParams() (services.PlanParams, error) {
	var params services.PlanParams
	var err error

	if params.MintWrapper, err = parsePublicKey(r.MintWrapper); err != nil {
		return params, fmt.Errorf("mint_wrapper: %w", err)
	}
	if params.MinterAuthority, err = parsePublicKey(r.MinterAuthority); err != nil {
		return params, fmt.Errorf("minter_authority: %w", err)
	}
	if params.NewUpdateAuthority, err = parsePublicKey(r.NewUpdateAuthority); err != nil {
		return params, fmt.Errorf("new_update_authority: %w", err)
	}
	if r.TokenMint != "" {
		var mint solana.PublicKey
		if mint, err = parsePublicKey(r.TokenMint); err != nil {
			return params, fmt.Errorf("token_mint: %w", err)
		}
		params.TokenMint = &mint
	}
	return params, nil
}
