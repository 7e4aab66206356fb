package text

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain upper", "CODIGO", "CODIGO"},
		{"accented upper", "CÓDIGO DE HABILITACIÓN", "CODIGO DE HABILITACION"},
		{"accented lower", "otrosí", "OTROSI"},
		{"mixed whitespace", "  acta   de \t negociación ", "ACTA DE NEGOCIACION"},
		{"n tilde folds like any mark", "AÑO", "ANO"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestFoldConcurrent(t *testing.T) {
	const input = "CÓDIGO DE HABILITACIÓN ÁÉÍÓÚ ñÑ çÇ OTROSÍ NEGOCIACIÓN"
	want := Fold(input)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got := Fold(input); got != want {
					t.Errorf("Fold = %q, want %q", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestContainsAll(t *testing.T) {
	assert.True(t, ContainsAll("ANEXO 1 PACTADO DEL PRESTADOR", "ANEXO", "1", "PACTADO"))
	assert.True(t, ContainsAll("Relación de Servicios Médicos", "relacion", "serv"))
	assert.False(t, ContainsAll("ANEXO 2", "ANEXO", "1"))
}
