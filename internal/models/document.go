package models

import "time"

// Document type values the model is instructed to choose from.
const (
	DocTypeInvoice      = "Nota Fiscal"
	DocTypeProductLabel = "Etiqueta de Produto"
	DocTypeCountReport  = "Relatório de Contagem"
	DocTypeUnknown      = "Desconhecido"
)

// ExtractedDocument is the structured result of a Gemini extraction run.
// Every field is optional: the model is told to emit null for anything it
// cannot read, so absence is represented with nil pointers rather than
// zero values.
type ExtractedDocument struct {
	DocumentType   *string    `json:"tipo_documento"`
	DocumentNumber *string    `json:"numero_documento"`
	IssueDate      *string    `json:"data_emissao"`
	SupplierName   *string    `json:"fornecedor"`
	SupplierTaxID  *string    `json:"cnpj_fornecedor"`
	Items          []LineItem `json:"itens"`
	DocumentTotal  *float64   `json:"valor_total_documento"`
	Notes          *string    `json:"observacoes_adicionais"`
}

// LineItem is a single row of an invoice or count report.
type LineItem struct {
	ProductCode *string  `json:"codigo_produto"`
	Description *string  `json:"descricao"`
	Quantity    *float64 `json:"quantidade"`
	Unit        *string  `json:"unidade"`
	UnitPrice   *float64 `json:"valor_unitario"`
	LineTotal   *float64 `json:"valor_total_item"`
}

// ExtractionRecord is the audit document written to Firestore for each
// processed upload. Best-effort only; a failed write never fails the request.
type ExtractionRecord struct {
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	ObjectURI        string    `firestore:"objectUri,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	DocumentType     string    `firestore:"documentType,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// Record statuses.
const (
	RecordStatusSuccess       = "success"
	RecordStatusInvalidOutput = "invalid_output"
)
