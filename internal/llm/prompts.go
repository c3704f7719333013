package llm

import (
	"fmt"
	"strings"
)

const ocrSystemPrompt = `Você é um especialista em multas de trânsito brasileiras.
Analise a imagem e extraia os dados.
Responda obrigatoriamente no formato JSON abaixo:
{
  "isTrafficFine": boolean,
  "aitNumber": string,
  "dataInfracao": string,
  "local": string,
  "placa": string,
  "renavam": string,
  "artigo": string,
  "orgaoAutuador": string,
  "nomeCondutor": string,
  "cpfCondutor": string
}
Se um campo não for encontrado, use null.`

const ocrUserPrompt = "Extraia os dados desta notificação de multa."

const appealSystemPrompt = `Você é um especialista em legislação de trânsito brasileira com experiência em recursos administrativos.
Gere um recurso de multa formal e sucinto, com linguagem jurídica precisa conforme o CTB.

REGRAS DE FORMATAÇÃO:
- NÃO use caracteres markdown como "#", "**", "*" ou qualquer formatação especial
- Escreva em texto corrido, natural e humanizado
- Use apenas quebras de linha e espaçamento para organizar o documento
- NÃO inclua lista de documentos anexos

ESTRUTURA DO RECURSO:
1. Cabeçalho com órgão destinatário
2. Qualificação do requerente (nome, CPF, endereço)
3. Dados do auto de infração (número, data, local, placa, artigo)
4. Breve exposição dos fatos (máximo 2 parágrafos)
5. Fundamentação legal concisa (citar artigos relevantes do CTB)
6. Pedido direto de cancelamento ou arquivamento

O texto deve ser:
- Formal, respeitoso e direto ao ponto
- Sucinto mas completo (sem repetições)
- Pronto para impressão
- Humanizado, como se escrito por uma pessoa real

IMPORTANTE: Use apenas as informações fornecidas. Se faltar dado essencial, indique "[PREENCHER]".`

// Arguments offered to the user when drafting an appeal.
var Arguments = []string{
	"Erro de enquadramento",
	"Ausência de sinalização",
	"Equipamento irregular",
	"Veículo não estava no local",
	"Notificação recebida fora do prazo",
}

const notInformed = "NÃO INFORMADO"

func orMissing(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return notInformed
	}
	return *s
}

// AppealUserPrompt renders the generation prompt for req.
func AppealUserPrompt(req AppealRequest) string {
	f := req.Fields
	explanation := strings.TrimSpace(req.Explanation)
	if explanation == "" {
		explanation = "Não fornecido"
	}
	var args string
	if len(req.Arguments) > 0 {
		args = "Argumentos selecionados: " + strings.Join(req.Arguments, ", ")
	}

	return fmt.Sprintf(`Gere um recurso de multa de trânsito sucinto e direto com base nos dados:

NOTIFICAÇÃO:
- Auto de Infração: %s
- Data: %s
- Local: %s
- Placa: %s
- RENAVAM: %s
- Artigo: %s
- Órgão: %s

CONDUTOR:
- Nome: %s
- CPF: %s
- Endereço: %s

RELATO:
%s

%s

Gere o recurso completo, sem markdown e sem lista de documentos anexos.`,
		orMissing(f.AitNumber), orMissing(f.DataInfracao), orMissing(f.Local), orMissing(f.Placa),
		orMissing(f.Renavam), orMissing(f.Artigo), orMissing(f.OrgaoAutuador),
		orMissing(f.NomeCondutor), orMissing(f.CpfCondutor), orMissing(f.EnderecoCondutor),
		explanation, args)
}
