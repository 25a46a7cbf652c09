package services

import (
	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/models"
)

// mirrorDescriptionPrefix prefixes the description of mirrored expenses.
const mirrorDescriptionPrefix = "Inversión: "

// mirrorRequest builds the expense that mirrors inv in the account service.
func mirrorRequest(inv *models.Investment, label, categoryName string) client.MirrorTransactionRequest {
	return client.MirrorTransactionRequest{
		Description:        mirrorDescriptionPrefix + label,
		Amount:             inv.InitialCapital,
		Type:               string(models.TransactionTypeExpense),
		CategoryName:       categoryName,
		Date:               inv.InvestmentDate,
		Notes:              inv.Notes,
		LinkedToInvestment: true,
		InvestmentID:       inv.ID,
	}
}
