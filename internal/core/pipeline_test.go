package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/charmap"

	"github.com/jlfwebstudio/tabela-node-backend/internal/schema"
)

const serviceOrderCSV = "Chamado;Numero Referencia;Nome Cliente;Serviço;Status\n123;REF1;JOÃO SILVA;MANUTENCAO;ABERTO\n"

func newTestPipeline(opts Options) *Pipeline {
	return NewPipeline(schema.ServiceOrders(schema.NationalIDDigits), opts)
}

func toWindows1252(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		t.Fatalf("encode windows-1252: %v", err)
	}
	return []byte(out)
}

func wantServiceOrderRow() map[string]string {
	return map[string]string{
		"Chamado":                "123",
		"Numero Referencia":      "REF1",
		"Contratante":            "",
		"Serviço":                "MANUTENCAO",
		"Status":                 "ABERTO",
		"Data Limite":            "",
		"Cliente":                "JOÃO SILVA",
		"CNPJ / CPF":             "",
		"Cidade":                 "",
		"Técnico":                "",
		"Prestador":              "",
		"Justificativa do Abono": "",
	}
}

func TestPipeline_Convert(t *testing.T) {
	tests := []struct {
		name         string
		data         func(t *testing.T) []byte
		wantEncoding string
	}{
		{
			name:         "utf-8",
			data:         func(*testing.T) []byte { return []byte(serviceOrderCSV) },
			wantEncoding: "utf-8",
		},
		{
			name:         "utf-8 with bom",
			data:         func(*testing.T) []byte { return append([]byte{0xEF, 0xBB, 0xBF}, serviceOrderCSV...) },
			wantEncoding: "utf-8",
		},
		{
			name:         "windows-1252 fallback",
			data:         func(t *testing.T) []byte { return toWindows1252(t, serviceOrderCSV) },
			wantEncoding: "windows-1252",
		},
		{
			name: "comma separated crlf",
			data: func(*testing.T) []byte {
				return []byte("Chamado,Numero Referencia,Nome Cliente,Serviço,Status\r\n123,REF1,JOÃO SILVA,MANUTENCAO,ABERTO\r\n")
			},
			wantEncoding: "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestPipeline(Options{}).Convert(context.Background(), tt.data(t))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if res.Encoding != tt.wantEncoding {
				t.Errorf("Encoding = %q, want %q", res.Encoding, tt.wantEncoding)
			}
			if len(res.Rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(res.Rows))
			}
			if diff := cmp.Diff(wantServiceOrderRow(), res.Rows[0].Map()); diff != "" {
				t.Errorf("row mismatch (-want +got):\n%s", diff)
			}
			if res.ID == "" {
				t.Error("Result.ID is empty")
			}
			if res.Empty {
				t.Error("Result.Empty = true for a file with rows")
			}
		})
	}
}

func TestPipeline_Convert_JSONKeyOrder(t *testing.T) {
	res, err := newTestPipeline(Options{}).Convert(context.Background(), []byte(serviceOrderCSV))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	data, err := json.Marshal(res.Rows)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `[{"Chamado":"123","Numero Referencia":"REF1","Contratante":"","Serviço":"MANUTENCAO",` +
		`"Status":"ABERTO","Data Limite":"","Cliente":"JOÃO SILVA","CNPJ / CPF":"","Cidade":"",` +
		`"Técnico":"","Prestador":"","Justificativa do Abono":""}]`
	if string(data) != want {
		t.Errorf("JSON =\n%s\nwant\n%s", data, want)
	}
}

func TestPipeline_Convert_NationalID(t *testing.T) {
	data := []byte("Chamado;CNPJ / CPF\n1;=\"12345678900\"\n2;\"=\"\"98.765.432/0001-10\"\"\"\n")

	res, err := newTestPipeline(Options{}).Convert(context.Background(), data)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	var got []string
	for _, r := range res.Rows {
		got = append(got, r.Get(schema.CNPJCPF))
	}
	if diff := cmp.Diff([]string{"12345678900", "98765432000110"}, got); diff != "" {
		t.Errorf("CNPJ / CPF mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_Convert_CombinedHeaders(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[string]string
	}{
		{
			name: "status header also supplies contratante",
			data: "Chamado;Status Contratante\n1;OS Encaminhada\n",
			want: map[string]string{
				schema.Chamado:     "1",
				schema.Status:      "OS Encaminhada",
				schema.Contratante: "OS Encaminhada",
			},
		},
		{
			name: "national id header naming the client",
			data: "Chamado;CNPJ / CPF Cliente;Nome Cliente\n1;=\"123.456.789-00\";Oficina Norte\n",
			want: map[string]string{
				schema.Chamado: "1",
				schema.CNPJCPF: "12345678900",
				schema.Cliente: "Oficina Norte",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestPipeline(Options{}).Convert(context.Background(), []byte(tt.data))
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if len(res.Rows) != 1 {
				t.Fatalf("got %d rows, want 1", len(res.Rows))
			}
			for col, want := range tt.want {
				if got := res.Rows[0].Get(col); got != want {
					t.Errorf("%s = %q, want %q", col, got, want)
				}
			}
		})
	}
}

func TestPipeline_Convert_UnclosedQuote(t *testing.T) {
	_, err := newTestPipeline(Options{}).Convert(context.Background(), []byte("Chamado;Cliente\n\"1;x\n2;y\n"))
	if !errors.Is(err, ErrProcessing) || !errors.Is(err, ErrInvalidCSV) {
		t.Fatalf("Convert() error = %v, want a processing error carrying ErrInvalidCSV", err)
	}
	if got := MapError(err).Code; got != "FILE002" {
		t.Errorf("MapError code = %q, want FILE002", got)
	}
}

func TestPipeline_Convert_Empty(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		policy      EmptyPolicy
		wantErr     error
		wantHeaders []string
	}{
		{name: "nil buffer", data: nil, wantErr: ErrMissingInput},
		{name: "nil buffer under allow", data: nil, policy: EmptyPolicyAllow, wantErr: ErrMissingInput},
		{name: "zero bytes", data: []byte{}, wantErr: ErrDecodeExhausted},
		{name: "zero bytes allowed", data: []byte{}, policy: EmptyPolicyAllow},
		{name: "blank lines only", data: []byte("\n\r\n  \n"), wantErr: ErrDecodeExhausted},
		{name: "header only", data: []byte("Chamado;Cliente\n"), wantErr: ErrEmptyResult},
		{
			name:        "header only allowed",
			data:        []byte("Chamado;Cliente\n"),
			policy:      EmptyPolicyAllow,
			wantHeaders: []string{"Chamado", "Cliente"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestPipeline(Options{EmptyPolicy: tt.policy}).Convert(context.Background(), tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
				}
				if res != nil {
					t.Errorf("Convert() result = %+v, want nil", res)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !res.Empty {
				t.Error("Result.Empty = false")
			}
			if res.Rows == nil || len(res.Rows) != 0 {
				t.Errorf("Rows = %#v, want empty non-nil slice", res.Rows)
			}
			if diff := cmp.Diff(tt.wantHeaders, res.Headers); diff != "" {
				t.Errorf("Headers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPipeline_Convert_AllEncodingsRejected(t *testing.T) {
	p := newTestPipeline(Options{Encodings: []Encoding{EncodingUTF8}})

	_, err := p.Convert(context.Background(), []byte("Servi\xe7o\n1\n"))
	if !errors.Is(err, ErrDecodeExhausted) {
		t.Fatalf("Convert() error = %v, want ErrDecodeExhausted", err)
	}
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Convert() error = %v, should carry the decode failure", err)
	}

	var convErr *Error
	if !errors.As(err, &convErr) || convErr.Details == "" {
		t.Errorf("expected *Error with details, got %#v", err)
	}
}

func TestPipeline_Convert_ForcedDelimiter(t *testing.T) {
	p := newTestPipeline(Options{Delimiter: '\t'})

	res, err := p.Convert(context.Background(), []byte("Chamado\tCidade\n9\tRecife, PE\n"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got := res.Rows[0].Get(schema.Cidade); got != "Recife, PE" {
		t.Errorf("Cidade = %q", got)
	}
	if res.Delimiter != '\t' {
		t.Errorf("Delimiter = %q", res.Delimiter)
	}
}

func TestPipeline_Convert_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(Options{}).Convert(ctx, []byte(serviceOrderCSV))
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("Convert() error = %v, want ErrProcessing", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want it to wrap context.Canceled", err)
	}
}

func TestPipeline_Convert_RecoversPanic(t *testing.T) {
	s := schema.MustNew(schema.Column{
		Name:  "Chamado",
		Clean: func(string) string { panic("cleanup exploded") },
	})

	_, err := NewPipeline(s, Options{}).Convert(context.Background(), []byte("Chamado\n1\n"))
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("Convert() error = %v, want ErrProcessing", err)
	}
	if KindOf(err) != KindProcessing {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if !strings.Contains(err.Error(), "cleanup exploded") {
		t.Errorf("error %q should mention the panic value", err)
	}
}

func TestPipeline_Convert_Concurrent(t *testing.T) {
	p := newTestPipeline(Options{})
	latin := toWindows1252(t, serviceOrderCSV)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := []byte(serviceOrderCSV)
			if i%2 == 1 {
				data = latin
			}
			res, err := p.Convert(context.Background(), data)
			if err != nil {
				t.Errorf("Convert() error = %v", err)
				return
			}
			if got := res.Rows[0].Get(schema.Cliente); got != "JOÃO SILVA" {
				t.Errorf("Cliente = %q", got)
			}
		}(i)
	}
	wg.Wait()
}

func TestParseEmptyPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    EmptyPolicy
		wantErr bool
	}{
		{in: "", want: EmptyPolicyReject},
		{in: "reject", want: EmptyPolicyReject},
		{in: "allow", want: EmptyPolicyAllow},
		{in: "ignore", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEmptyPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEmptyPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEmptyPolicy() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := preview("JOÃO SILVA", 4); got != "JOÃO" {
		t.Errorf("preview() = %q", got)
	}
	if got := preview("abc", 10); got != "abc" {
		t.Errorf("preview() = %q", got)
	}
}
