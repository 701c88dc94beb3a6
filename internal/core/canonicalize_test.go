package core

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

func TestCanonicalize(t *testing.T) {
	s := schema.ServiceOrders(schema.NationalIDDigits)
	headers := []string{"Chamado", "Nome Cliente", "CPF", "Extra"}
	m := Reconcile(headers, s)

	row := Canonicalize(RawRow{Line: 2, Values: []string{" 123 ", "JOÃO SILVA  ", `="12345678900"`, "ignored"}}, m, s)

	want := map[string]string{
		schema.Chamado:              "123",
		schema.NumeroReferencia:     "",
		schema.Contratante:          "",
		schema.Servico:              "",
		schema.Status:               "",
		schema.DataLimite:           "",
		schema.Cliente:              "JOÃO SILVA",
		schema.CNPJCPF:              "12345678900",
		schema.Cidade:               "",
		schema.Tecnico:              "",
		schema.Prestador:            "",
		schema.JustificativaDoAbono: "",
	}
	if diff := cmp.Diff(want, row.Map()); diff != "" {
		t.Errorf("Canonicalize() mismatch (-want +got):\n%s", diff)
	}
	if got := row.Get("Extra"); got != "" {
		t.Errorf("non-schema header leaked into row: %q", got)
	}
}

func TestCanonicalize_StripMode(t *testing.T) {
	s := schema.ServiceOrders(schema.NationalIDStrip)
	m := Reconcile([]string{"CNPJ / CPF"}, s)

	row := Canonicalize(RawRow{Values: []string{`="12.345.678/0001-90"`}}, m, s)
	if got := row.Get(schema.CNPJCPF); got != "12.345.678/0001-90" {
		t.Errorf("CNPJ / CPF = %q", got)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	s := schema.ServiceOrders(schema.NationalIDDigits)
	m := Reconcile([]string{"OS", "Cliente", "Documento", "Município"}, s)

	first := Canonicalize(RawRow{Values: []string{"77", " Maria ", `="123.456.789-00"`, "Olinda"}}, m, s)

	again := Canonicalize(RawRow{Values: first.Values()}, Reconcile(s.Names(), s), s)
	if diff := cmp.Diff(first.Values(), again.Values()); diff != "" {
		t.Errorf("second pass changed the row (-first +again):\n%s", diff)
	}
}

func TestCanonicalize_ShortRawRow(t *testing.T) {
	s := schema.ServiceOrders(schema.NationalIDDigits)
	m := Reconcile([]string{"Chamado", "Cidade"}, s)

	row := Canonicalize(RawRow{Values: []string{"1"}}, m, s)
	if got := row.Get(schema.Cidade); got != "" {
		t.Errorf("Cidade = %q, want empty", got)
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	row := NewRow([]string{"Serviço", "Chamado", "Cliente"}, []string{"MANUTENÇÃO", "1", `"Zé"`})

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"Serviço":"MANUTENÇÃO","Chamado":"1","Cliente":"\"Zé\""}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back Row
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(row.Values(), back.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if back.Get("Cliente") != `"Zé"` {
		t.Errorf("Get(Cliente) = %q", back.Get("Cliente"))
	}
}

func TestRow_MarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal([]Row{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal() = %s, want []", data)
	}
}
