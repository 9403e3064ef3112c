package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// ExtractionPrompt instructs the model to read a fiscal document image and
// answer with a single JSON object. It is run through the prompt sanitizer
// before every call.
const ExtractionPrompt = `Analise esta imagem que pode ser uma nota fiscal, etiqueta de produto ou documento de estoque.
Extraia as seguintes informações em formato JSON, se presentes e identificáveis:
{
  "tipo_documento": "Nota Fiscal" ou "Etiqueta de Produto" ou "Relatório de Contagem" ou "Desconhecido",
  "numero_documento": "<numero_da_nota_fiscal_ou_referencia>",
  "data_emissao": "<DD/MM/AAAA>",
  "fornecedor": "<nome_do_fornecedor>",
  "cnpj_fornecedor": "<CNPJ>",
  "itens": [
    {
      "codigo_produto": "<codigo>",
      "descricao": "<descricao_do_item>",
      "quantidade": <quantidade_numerica>,
      "unidade": "<unidade_medida>",
      "valor_unitario": <valor_numerica>,
      "valor_total_item": <valor_numerica>
    }
  ],
  "valor_total_documento": <valor_numerica>,
  "observacoes_adicionais": "<texto_livre_de_observacoes_ou_discrepancias>"
}
Se a informação não for encontrada, deixe o campo como null ou array vazio para "itens".
Se for uma etiqueta, preencha apenas o que for relevante.
Certifique-se de que a saída seja um JSON válido.`

// VertexClient holds the pre-configured extraction model.
type VertexClient struct {
	DocumentModel *genai.GenerativeModel
	baseClient    *genai.Client
}

// NewVertexClient creates a Vertex AI client with the extraction model
// configured. The model is deliberately not forced into JSON mode: malformed
// output is handled downstream as a soft failure rather than hidden here.
func NewVertexClient(ctx context.Context, projectID, region, modelID string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	documentModel := baseClient.GenerativeModel(modelID)
	documentModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	documentModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		DocumentModel: documentModel,
		baseClient:    baseClient,
	}, nil
}

// ExtractFromImage sends the prompt plus a reference to the stored image and
// returns the raw text of the model's answer.
func (c *VertexClient) ExtractFromImage(ctx context.Context, prompt, imageURI, mimeType string) (string, error) {
	filePart := genai.FileData{
		MIMEType: mimeType,
		FileURI:  imageURI,
	}

	resp, err := c.DocumentModel.GenerateContent(ctx, filePart, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	return drainText(resp), nil
}

// drainText concatenates every text part of the first candidate.
func drainText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// Close releases the underlying client.
func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
