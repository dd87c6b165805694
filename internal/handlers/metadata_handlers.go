package handlers

import (
	"net/http"

	"github.com/cyphera/authority-proxy/internal/constants"
	"github.com/gin-gonic/gin"
)

// MetadataHandler serves metadata record lookups
type MetadataHandler struct {
	service DelegationService
}

// MetadataAddressResponse is the derived record address of a mint
type MetadataAddressResponse struct {
	Mint    string `json:"mint"`
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

// NewMetadataHandler creates a new MetadataHandler instance
func NewMetadataHandler(service DelegationService) *MetadataHandler {
	return &MetadataHandler{service: service}
}

// GetMetadataAddress godoc
// @Summary Derive a metadata address
// @Description Derives the canonical metadata record address for a mint
// @Tags metadata
// @Produce json
// @Param mint path string true "Token mint (base58)"
// @Success 200 {object} MetadataAddressResponse
// @Failure 400 {object} ErrorResponse
// @Router /metadata/{mint}/address [get]
func (h *MetadataHandler) GetMetadataAddress(c *gin.Context) {
	mint, err := parsePublicKey(c.Param("mint"))
	if err != nil {
		sendError(c, http.StatusBadRequest, constants.InvalidMintAddress, err)
		return
	}

	address, bump, err := h.service.MetadataAddress(mint)
	if err != nil {
		handleServiceError(c, err, "failed to derive metadata address")
		return
	}

	sendSuccess(c, http.StatusOK, MetadataAddressResponse{
		Mint:    mint.String(),
		Address: address.String(),
		Bump:    bump,
	})
}

// GetMetadataStatus godoc
// @Summary Inspect a metadata record
// @Description Reports whether the mint's metadata record exists and who its update authority is
// @Tags metadata
// @Produce json
// @Param mint path string true "Token mint (base58)"
// @Success 200 {object} services.MetadataStatus
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /metadata/{mint} [get]
func (h *MetadataHandler) GetMetadataStatus(c *gin.Context) {
	mint, err := parsePublicKey(c.Param("mint"))
	if err != nil {
		sendError(c, http.StatusBadRequest, constants.InvalidMintAddress, err)
		return
	}

	status, err := h.service.GetMetadataStatus(c.Request.Context(), mint)
	if err != nil {
		handleServiceError(c, err, "failed to read metadata record")
		return
	}

	sendSuccess(c, http.StatusOK, status)
}
