package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acaipulse/internal/format"
	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	tempDir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(tempDir, ',', logger), tempDir
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		expected string
	}{
		{
			name:     "headers and records with BOM",
			filePath: "simple.csv",
			options: WriteOptions{
				Headers:   []string{"Loja", "Total"},
				Records:   [][]string{{"Centro", "10,50"}},
				BOMPrefix: true,
			},
			expected: "\ufeffLoja,Total\nCentro,\"10,50\"\n",
		},
		{
			name:     "nested relative path is created",
			filePath: filepath.Join("sub", "dir", "nested.csv"),
			options: WriteOptions{
				Headers: []string{"A"},
				Records: [][]string{{"1"}, {"2"}},
			},
			expected: "A\n1\n2\n",
		},
		{
			name:     "no headers",
			filePath: "bare.csv",
			options: WriteOptions{
				Records: [][]string{{"x", "y"}},
			},
			expected: "x,y\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			content, err := os.ReadFile(filepath.Join(tempDir, tt.filePath))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(content))
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("append.csv", []string{"Loja"}, [][]string{{"A"}}))
	require.NoError(t, writer.AppendToCSV("append.csv", [][]string{{"B"}, {"C"}}))

	content, err := os.ReadFile(filepath.Join(tempDir, "append.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, utf8BOM))
	assert.Equal(t, "Loja\nA\nB\nC\n", string(content[len(utf8BOM):]))
}

func TestCSVWriter_AbsolutePathIsKept(t *testing.T) {
	writer, _ := setupTestEnv(t)
	other := filepath.Join(t.TempDir(), "abs.csv")

	require.NoError(t, writer.WriteSimpleCSV(other, []string{"A"}, nil))
	assert.FileExists(t, other)
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"Produto", "Quantidade"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"Açaí 300ml", "2"}))
	require.NoError(t, stream.WriteRecord([]string{"Açaí 500ml", "1"}))
	require.NoError(t, stream.Close())

	content, err := os.ReadFile(filepath.Join(tempDir, "stream.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(content[len(utf8BOM):])), "\n")
	assert.Equal(t, []string{"Produto,Quantidade", "Açaí 300ml,2", "Açaí 500ml,1"}, lines)
}

func TestCSVWriter_WriteSales(t *testing.T) {
	writer, _ := setupTestEnv(t)
	sales := []domain.Sale{
		testutil.NewSale(testutil.WithStore("A"), testutil.WithAmounts(1234.5, 100)),
		testutil.NewSale(testutil.WithStore("B"), testutil.WithPromotion(true)),
	}

	var buf bytes.Buffer
	require.NoError(t, writer.WriteSales(&buf, sales, format.PtBR))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, SaleHeaders(), records[0])

	col := func(name string) int {
		for i, h := range records[0] {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}

	assert.Equal(t, "A", records[1][col("Loja")])
	assert.Equal(t, "1234,50", records[1][col("Total_Venda")])
	assert.Equal(t, "False", records[1][col("Promocao_Ativa")])
	assert.Equal(t, "True", records[2][col("Promocao_Ativa")])
	assert.Equal(t, "Segunda-feira", records[1][col(ColWeekday)])
	assert.Equal(t, "12", records[1][col(ColHour)])
}

func TestCSVWriter_Delimiter(t *testing.T) {
	writer := NewCSVWriter("", ';', nil)

	var buf bytes.Buffer
	require.NoError(t, writer.WriteSales(&buf, []domain.Sale{testutil.NewSale()}, format.PtBR))

	firstLine := strings.SplitN(string(buf.Bytes()[len(utf8BOM):]), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(firstLine, "Loja;Bairro;Data"))
}
