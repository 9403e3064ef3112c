package services

import (
	"fmt"
	"strconv"
	"strings"

	"visionestoque/internal/models"
)

// FormatNotification renders an extracted document into the fixed
// human-readable report. It never fails: anything unexpected is replaced with
// a fallback string.
func FormatNotification(doc *models.ExtractedDocument) (message string) {
	defer func() {
		if r := recover(); r != nil {
			message = "Erro ao gerar relatório de notificação"
		}
	}()

	var sb strings.Builder

	sb.WriteString("\n**Relatório Vision Estoque-Financeiro**\n")
	fmt.Fprintf(&sb, "Tipo de Documento: %s\n", stringOr(doc.DocumentType, "N/A"))
	fmt.Fprintf(&sb, "Número: %s\n", stringOr(doc.DocumentNumber, "N/A"))
	fmt.Fprintf(&sb, "Data: %s\n", stringOr(doc.IssueDate, "N/A"))
	fmt.Fprintf(&sb, "Fornecedor: %s\n", stringOr(doc.SupplierName, "N/A"))
	fmt.Fprintf(&sb, "Valor Total: R$ %s\n", numberOr(doc.DocumentTotal, "0.00"))
	sb.WriteString("\n**Itens:**\n")

	for _, item := range doc.Items {
		fmt.Fprintf(&sb, "- %s (%s) Qtd: %s %s Total: R$ %s\n",
			stringOr(item.Description, "N/A"),
			stringOr(item.ProductCode, "N/A"),
			numberOr(item.Quantity, "N/A"),
			stringOr(item.Unit, ""),
			numberOr(item.LineTotal, "0.00"),
		)
	}

	fmt.Fprintf(&sb, "\nObservações: %s", stringOr(doc.Notes, "Nenhuma"))

	return sb.String()
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func numberOr(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
