package schema

import (
	"fmt"
	"strings"
)

// Canonical service-order columns, in the order the frontend table renders them.
const (
	Chamado              = "Chamado"
	NumeroReferencia     = "Numero Referencia"
	Contratante          = "Contratante"
	Servico              = "Serviço"
	Status               = "Status"
	DataLimite           = "Data Limite"
	Cliente              = "Cliente"
	CNPJCPF              = "CNPJ / CPF"
	Cidade               = "Cidade"
	Tecnico              = "Técnico"
	Prestador            = "Prestador"
	JustificativaDoAbono = "Justificativa do Abono"
)

// NationalIDMode selects how much of a CNPJ/CPF cell survives cleanup.
type NationalIDMode string

const (
	// NationalIDDigits keeps only the digits ("12.345.678/0001-90" -> "12345678000190").
	NationalIDDigits NationalIDMode = "digits"
	// NationalIDStrip only removes the spreadsheet formula wrapper and keeps punctuation.
	NationalIDStrip NationalIDMode = "strip"
)

// ParseNationalIDMode validates a mode name. Empty selects NationalIDDigits.
func ParseNationalIDMode(s string) (NationalIDMode, error) {
	switch NationalIDMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", NationalIDDigits:
		return NationalIDDigits, nil
	case NationalIDStrip:
		return NationalIDStrip, nil
	default:
		return "", fmt.Errorf("unknown national id mode %q (want digits or strip)", s)
	}
}

// CleanNationalID returns the cleanup for the CNPJ / CPF column.
//
// Spreadsheet exports protect long numbers from scientific notation by writing
// them as a formula, so the cell arrives as ="12345678900". The leading '='
// (optionally followed by '"') and a trailing '"' are removed; in digits mode
// everything that is not a digit is dropped as well.
func CleanNationalID(mode NationalIDMode) CleanFunc {
	return func(s string) string {
		s = stripFormula(s)
		if mode == NationalIDStrip {
			return s
		}
		return digitsOnly(s)
	}
}

func stripFormula(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=") {
		s = strings.TrimPrefix(s[1:], `"`)
		s = strings.TrimSuffix(s, `"`)
	}
	return strings.TrimSpace(s)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ServiceOrders returns the service-order schema used by the upload endpoint.
// Aliases cover the spellings seen in real exports: accented and unaccented,
// abbreviated, and the "Nome ..." / "... Responsável" variants.
func ServiceOrders(mode NationalIDMode) *Schema {
	return MustNew(
		Column{
			Name:    Chamado,
			Aliases: []string{"Nº Chamado", "Numero Chamado", "Número do Chamado", "Chamado ID", "OS", "Numero OS"},
		},
		Column{
			Name: NumeroReferencia,
			Aliases: []string{
				"Número Referência", "Numero de Referencia", "Nº Referência", "Num Referencia",
				"Numero Ref", "Referencia", "Referência", "Ref",
			},
		},
		Column{
			Name:    Contratante,
			Aliases: []string{"Empresa Contratante", "Nome Contratante"},
		},
		Column{
			Name:    Servico,
			Aliases: []string{"Servico", "Grupo Serviço", "Tipo de Serviço", "Tipo Servico"},
		},
		Column{
			Name:    Status,
			Aliases: []string{"Status Contratante", "Status OS", "Situação"},
		},
		Column{
			Name:    DataLimite,
			Aliases: []string{"Data Limite Atendimento", "Dt Limite", "Data Prazo", "Prazo", "Prazo Limite"},
		},
		Column{
			Name:    Cliente,
			Aliases: []string{"Nome Cliente", "Nome do Cliente", "NOMECLIENTE", "Razão Social", "Cliente Final"},
		},
		Column{
			Name:    CNPJCPF,
			Aliases: []string{
				"CNPJ", "CPF", "CNPJ/CPF", "CPF/CNPJ", "CPF / CNPJ",
				"CNPJ / CPF Cliente", "CPF/CNPJ Cliente", "CNPJ Cliente", "CPF Cliente",
				"Documento", "Documento Cliente", "Documento do Cliente",
			},
			Clean:   CleanNationalID(mode),
		},
		Column{
			Name:    Cidade,
			Aliases: []string{"Município", "Cidade Cliente", "Localidade"},
		},
		Column{
			Name:    Tecnico,
			Aliases: []string{"Tecnico", "TECNICO", "Nome Técnico", "Técnico Responsável"},
		},
		Column{
			Name:    Prestador,
			Aliases: []string{"Prestador Responsável", "Nome Prestador", "Empresa Prestadora"},
		},
		Column{
			Name:    JustificativaDoAbono,
			Aliases: []string{"Justificativa", "Justificativa Abono", "Motivo do Abono", "Motivo Abono"},
		},
	)
}
